package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sumwave/otodl/internal/acquire"
	"github.com/sumwave/otodl/internal/config"
	"github.com/sumwave/otodl/internal/pathmgr"
	"github.com/sumwave/otodl/internal/utils"
)

var (
	debug          bool
	fileLog        bool
	configPath     string
	cacheDir       string
	workers        int
	timeout        time.Duration
	chooseFormat   bool
	cookiesBrowser string
	cookiesFile    string
	proxyURL       string
	userAgent      string
	headers        []string
)

var OtodlVersion = "dev"

var cfg *config.Config
var globalHTTPConfig utils.HTTPClientConfig

var rootCmd = &cobra.Command{
	Use:     "otodl",
	Short:   "otodl caches media from video and audio services as playable audio files",
	Version: OtodlVersion,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		utils.InitLogger(debug)
		if fileLog {
			f, err := os.OpenFile(utils.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				return fmt.Errorf("failed to open log file: %w", err)
			}
			utils.SetLogOutput(f)
		}
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("cache-dir") {
			cfg.CacheRoot = cacheDir
		}
		if cmd.Flags().Changed("workers") {
			cfg.Workers = workers
		}
		if cmd.Flags().Changed("timeout") {
			cfg.Timeout = config.Duration(timeout)
		}
		if cmd.Flags().Changed("choose-format") {
			cfg.ChooseFormat = chooseFormat
		}
		if cmd.Flags().Changed("cookies-browser") {
			cfg.Cookies.Browser = cookiesBrowser
		}
		if cmd.Flags().Changed("cookies-file") {
			cfg.Cookies.File = cookiesFile
		}
		if cmd.Flags().Changed("proxy") {
			cfg.Proxy.URL = proxyURL
		}
		if userAgent == "randomize" {
			userAgent = utils.GetRandomUserAgent()
		}
		globalHTTPConfig = utils.HTTPClientConfig{
			Timeout:   60 * time.Second,
			KATimeout: 60 * time.Second,
			ProxyURL:  cfg.Proxy.URL,
			UserAgent: userAgent,
			Headers:   utils.ParseHeaderArgs(headers),
		}
		return nil
	},
}

// newWorker builds the acquisition worker from the effective config.
func newWorker() *acquire.Worker {
	return &acquire.Worker{
		Root:         cfg.CacheRoot,
		Cookies:      acquire.CookieSource{Browser: cfg.Cookies.Browser, File: cfg.Cookies.File},
		Timeout:      cfg.Timeout.Std(),
		ChooseFormat: cfg.ChooseFormat,
		HTTP:         utils.NewOtodlHTTPClient(globalHTTPConfig),
	}
}

func newPathManager() *pathmgr.Manager {
	return pathmgr.New(newWorker(), cfg.Workers)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&fileLog, "log-file", false, "Write logs to "+utils.LogFile+" instead of stderr")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "otodl.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", ".", "Cache root directory")
	rootCmd.PersistentFlags().IntVarP(&workers, "workers", "w", 5, "Number of concurrent acquisitions")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Per-acquisition timeout (0 disables)")
	rootCmd.PersistentFlags().BoolVar(&chooseFormat, "choose-format", false, "Probe the format table instead of best-audio")
	rootCmd.PersistentFlags().StringVar(&cookiesBrowser, "cookies-browser", "", "Browser profile for bot-check retries")
	rootCmd.PersistentFlags().StringVar(&cookiesFile, "cookies-file", "", "Netscape cookie file for bot-check retries")
	rootCmd.PersistentFlags().StringVar(&proxyURL, "proxy", "", "HTTP/SOCKS proxy URL")
	rootCmd.PersistentFlags().StringVar(&userAgent, "user-agent", "", "User agent for direct downloads ('randomize' for a browser one)")
	rootCmd.PersistentFlags().StringArrayVarP(&headers, "header", "H", nil, "Custom header for direct downloads (key:value)")
	rootCmd.AddCommand(newGetCmd())
	rootCmd.AddCommand(newResolveCmd())
	rootCmd.AddCommand(newMetaCmd())
	rootCmd.AddCommand(newCleanCmd())
}
