package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/patrickkfkan/imagefap-dl/pkg/config"
	"github.com/patrickkfkan/imagefap-dl/pkg/ui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage imagefap-dl configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (IMAGEFAP_DL_*)
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.imagefap-dl.yaml'
unless a different path is specified with the --config flag.`,
	Run: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the current configuration including values from all sources:
  - Command line flags
  - Environment variables
  - Configuration file
  - Default values`,
	Run: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Value types and ranges
  - Path accessibility`,
	Run: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	// Determine config file path
	configPath := configFile
	if configPath == "" {
		configPath = ".imagefap-dl.yaml"
	}

	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	// Create example configuration
	exampleConfig := `# imagefap-dl configuration file
#
# Every option can also be set through environment variables prefixed
# with IMAGEFAP_DL_, for example IMAGEFAP_DL_OUTPUT_DIR.

# Output layout
output:
  # Root directory downloads are placed under
  root_directory: "./downloads"

  # Directory segments, applied in this order when enabled:
  # uploader, "Favorites", folder, gallery
  uploader_dir: true
  favorites_dir: true
  folder_dir: true
  gallery_dir: true

  # Prefix filenames with the image's position in the gallery ("0 - ...")
  seq_filenames: false

  # Fetch each image's photo page for its untruncated title (slow)
  full_filenames: false

  # Write gallery.json / favorites.json next to the images
  write_json: true

  # Save the raw first gallery page as gallery.html
  write_html: true

  # Re-download images that already exist on disk
  overwrite: false

# Request pacing and transport
request:
  # Minimum milliseconds between page fetches (pages are sequential)
  page_interval_ms: 2000

  # Minimum milliseconds between image download starts
  image_interval_ms: 200

  # Number of concurrent image downloads
  image_concurrency: 10

  # Maximum retry attempts for failed requests
  max_retries: 3

  # Per-request timeout in seconds
  timeout_seconds: 60

  # Proxy URL (http, https or socks5). Leave empty for none.
  proxy: ""

  # Skip TLS certificate verification. Only useful together with an
  # intercepting proxy you trust.
  insecure_skip_verify: false

  # Override the User-Agent header. Leave empty for the default.
  user_agent: ""

# Logging
logging:
  # Log level: debug, info, warn, error
  level: "info"

  # Log file path (optional)
  # Leave empty to log to the terminal only
  file: ""

  # Disable colored log output
  no_color: false
`

	// Write configuration file
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Adjust the defaults to your liking")
	fmt.Println("2. Run 'imagefap-dl config validate' to check the configuration")
	fmt.Println("3. Start downloading with 'imagefap-dl <gallery url>'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	// Load configuration
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	// Convert to YAML for display
	data, err := yaml.Marshal(cfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	// Show configuration sources
	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (IMAGEFAP_DL_*)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (not specified)")
	}
	fmt.Println("4. Default values")
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	// Check if config file is specified
	if configFile == "" {
		// Try to find config file in the locations Load searches
		possiblePaths := []string{
			".imagefap-dl.yaml",
			".imagefap-dl.yml",
			filepath.Join(os.Getenv("HOME"), ".config", "imagefap-dl", "config.yaml"),
			filepath.Join(os.Getenv("HOME"), ".config", "imagefap-dl", "config.yml"),
			filepath.Join(os.Getenv("HOME"), ".imagefap-dl.yaml"),
			filepath.Join(os.Getenv("HOME"), ".imagefap-dl.yml"),
		}

		for _, path := range possiblePaths {
			if _, err := os.Stat(path); err == nil {
				configFile = path
				break
			}
		}

		if configFile == "" {
			ui.PrintError("No configuration file found", "Specify a file with --config flag")
			os.Exit(1)
		}
	}

	ui.PrintInfo("Validating configuration", configFile)

	// Load runs the same validation the downloader itself uses
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		os.Exit(1)
	}

	// Check that the configured paths are usable
	var pathErrors []string
	if cfg.Output.RootDirectory != "" {
		if err := os.MkdirAll(cfg.Output.RootDirectory, 0755); err != nil {
			pathErrors = append(pathErrors, fmt.Sprintf("cannot create output directory: %v", err))
		}
	}
	if cfg.Logging.File != "" {
		dir := filepath.Dir(cfg.Logging.File)
		if err := os.MkdirAll(dir, 0755); err != nil {
			pathErrors = append(pathErrors, fmt.Sprintf("cannot create log directory: %v", err))
		}
	}

	if len(pathErrors) > 0 {
		ui.PrintError("Configuration has errors:")
		for _, e := range pathErrors {
			fmt.Printf("  - %s\n", e)
		}
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration is valid")

	// Show summary
	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Output directory: %s\n", cfg.Output.RootDirectory)
	fmt.Printf("  Page interval: %dms\n", cfg.Request.PageIntervalMS)
	fmt.Printf("  Image interval: %dms\n", cfg.Request.ImageIntervalMS)
	fmt.Printf("  Image concurrency: %d\n", cfg.Request.ImageConcurrency)
	fmt.Printf("  Max retries: %d\n", cfg.Request.MaxRetries)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
}
