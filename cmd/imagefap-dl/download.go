package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/patrickkfkan/imagefap-dl/pkg/config"
	"github.com/patrickkfkan/imagefap-dl/pkg/imagefap"
	"github.com/patrickkfkan/imagefap-dl/pkg/logger"
	"github.com/patrickkfkan/imagefap-dl/pkg/scraper"
	"github.com/patrickkfkan/imagefap-dl/pkg/ui"
	"github.com/spf13/cobra"
)

var (
	// Download command flags
	outputDir        string
	inputFile        string
	noUploaderDir    bool
	noFavoritesDir   bool
	noFolderDir      bool
	noGalleryDir     bool
	seqFilenames     bool
	fullFilenames    bool
	noJSON           bool
	noHTML           bool
	overwrite        bool
	pageInterval     int
	imageInterval    int
	imageConcurrency int
	maxRetries       int
	proxy            string
	insecure         bool
	assumeYes        bool
)

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:   "download <url>...",
	Short: "Download everything reachable from one or more imagefap URLs",
	Long: `Download galleries, folders, favorites or single photos from imagefap.com.

Each URL is classified by its shape: gallery pages and photo pages are
downloaded as one gallery, folder pages as every gallery (or saved image)
inside them, and profile overview pages as every folder of the user.

Targets can be given as arguments, read from a file with --input, or both.
Pages are fetched one at a time with a configurable pause between them;
images download concurrently on their own, faster schedule.`,
	Example: `  # Download a single gallery
  imagefap-dl download https://www.imagefap.com/gallery/7885126

  # The download command is optional
  imagefap-dl https://www.imagefap.com/gallery/7885126

  # Everything a user has uploaded, with position-numbered filenames
  imagefap-dl download --seq-filenames "https://www.imagefap.com/profile/someuser/galleries"

  # One favorites folder, to a custom directory, without confirmation
  imagefap-dl download -y -o ./saved "https://www.imagefap.com/showfavorites.php?userid=1234567&folderid=7654321"

  # Targets from a file, one URL per line, # starts a comment
  imagefap-dl download --input targets.txt`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runDownload(cmd, args)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	// Local flags for download command
	downloadCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for downloads (default: ./downloads)")
	downloadCmd.Flags().StringVarP(&inputFile, "input", "i", "", "file with target URLs, one per line")
	downloadCmd.Flags().BoolVar(&noUploaderDir, "no-uploader-dir", false, "don't create a directory per uploader")
	downloadCmd.Flags().BoolVar(&noFavoritesDir, "no-favorites-dir", false, "don't create the Favorites directory for favorites targets")
	downloadCmd.Flags().BoolVar(&noFolderDir, "no-folder-dir", false, "don't create a directory per folder")
	downloadCmd.Flags().BoolVar(&noGalleryDir, "no-gallery-dir", false, "don't create a directory per gallery")
	downloadCmd.Flags().BoolVar(&seqFilenames, "seq-filenames", false, "prefix filenames with the image's position in the gallery")
	downloadCmd.Flags().BoolVar(&fullFilenames, "full-filenames", false, "fetch each image's photo page for its untruncated title (slow)")
	downloadCmd.Flags().BoolVar(&noJSON, "no-json", false, "don't write gallery.json / favorites.json records")
	downloadCmd.Flags().BoolVar(&noHTML, "no-html", false, "don't save the raw gallery page as gallery.html")
	downloadCmd.Flags().BoolVar(&overwrite, "overwrite", false, "re-download images that already exist on disk")
	downloadCmd.Flags().IntVar(&pageInterval, "page-interval", 2000, "minimum milliseconds between page fetches")
	downloadCmd.Flags().IntVar(&imageInterval, "image-interval", 200, "minimum milliseconds between image download starts")
	downloadCmd.Flags().IntVar(&imageConcurrency, "image-concurrency", 10, "number of concurrent image downloads")
	downloadCmd.Flags().IntVar(&maxRetries, "max-retries", 3, "maximum retry attempts for failed requests")
	downloadCmd.Flags().StringVar(&proxy, "proxy", "", "proxy URL (http, https or socks5)")
	downloadCmd.Flags().BoolVar(&insecure, "insecure", false, "skip TLS certificate verification")
	downloadCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "start without asking for confirmation")

	// The same flags on the root command, so the download subcommand
	// stays optional.
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for downloads (default: ./downloads)")
	rootCmd.Flags().StringVarP(&inputFile, "input", "i", "", "file with target URLs, one per line")
	rootCmd.Flags().BoolVar(&noUploaderDir, "no-uploader-dir", false, "don't create a directory per uploader")
	rootCmd.Flags().BoolVar(&noFavoritesDir, "no-favorites-dir", false, "don't create the Favorites directory for favorites targets")
	rootCmd.Flags().BoolVar(&noFolderDir, "no-folder-dir", false, "don't create a directory per folder")
	rootCmd.Flags().BoolVar(&noGalleryDir, "no-gallery-dir", false, "don't create a directory per gallery")
	rootCmd.Flags().BoolVar(&seqFilenames, "seq-filenames", false, "prefix filenames with the image's position in the gallery")
	rootCmd.Flags().BoolVar(&fullFilenames, "full-filenames", false, "fetch each image's photo page for its untruncated title (slow)")
	rootCmd.Flags().BoolVar(&noJSON, "no-json", false, "don't write gallery.json / favorites.json records")
	rootCmd.Flags().BoolVar(&noHTML, "no-html", false, "don't save the raw gallery page as gallery.html")
	rootCmd.Flags().BoolVar(&overwrite, "overwrite", false, "re-download images that already exist on disk")
	rootCmd.Flags().IntVar(&pageInterval, "page-interval", 2000, "minimum milliseconds between page fetches")
	rootCmd.Flags().IntVar(&imageInterval, "image-interval", 200, "minimum milliseconds between image download starts")
	rootCmd.Flags().IntVar(&imageConcurrency, "image-concurrency", 10, "number of concurrent image downloads")
	rootCmd.Flags().IntVar(&maxRetries, "max-retries", 3, "maximum retry attempts for failed requests")
	rootCmd.Flags().StringVar(&proxy, "proxy", "", "proxy URL (http, https or socks5)")
	rootCmd.Flags().BoolVar(&insecure, "insecure", false, "skip TLS certificate verification")
	rootCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "start without asking for confirmation")
}

func runDownload(cmd *cobra.Command, args []string) {
	targets := make([]string, 0, len(args))
	for _, arg := range args {
		if u := strings.TrimSpace(arg); u != "" {
			targets = append(targets, u)
		}
	}

	if inputFile != "" {
		fromFile, err := readTargetFile(inputFile)
		if err != nil {
			ui.PrintError("Failed to read target list", err.Error())
			os.Exit(1)
		}
		targets = append(targets, fromFile...)
	}

	if len(targets) == 0 {
		ui.PrintError("No target URLs given", "pass URLs as arguments or via --input")
		fmt.Println()
		_ = cmd.Usage()
		os.Exit(1)
	}

	// Build flags map from command line
	flags := make(map[string]interface{})
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if noUploaderDir {
		flags["no-uploader-dir"] = true
	}
	if noFavoritesDir {
		flags["no-favorites-dir"] = true
	}
	if noFolderDir {
		flags["no-folder-dir"] = true
	}
	if noGalleryDir {
		flags["no-gallery-dir"] = true
	}
	if seqFilenames {
		flags["seq-filenames"] = true
	}
	if fullFilenames {
		flags["full-filenames"] = true
	}
	if noJSON {
		flags["no-json"] = true
	}
	if noHTML {
		flags["no-html"] = true
	}
	if overwrite {
		flags["overwrite"] = true
	}
	if pageInterval != 2000 {
		flags["page-interval"] = pageInterval
	}
	if imageInterval != 200 {
		flags["image-interval"] = imageInterval
	}
	if imageConcurrency != 10 {
		flags["image-concurrency"] = imageConcurrency
	}
	if maxRetries != 3 {
		flags["max-retries"] = maxRetries
	}
	if proxy != "" {
		flags["proxy"] = proxy
	}
	if insecure {
		flags["insecure"] = true
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}
	if logFile != "" {
		flags["log-file"] = logFile
	}
	if noColor {
		flags["no-color"] = true
	}

	// Load configuration
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("imagefap-dl starting")

	// Show what each URL was recognized as before committing to the run.
	for _, raw := range targets {
		target, err := imagefap.ClassifyTarget(raw)
		if err != nil {
			ui.PrintWarning("Unrecognized URL", raw)
			continue
		}
		ui.PrintInfo(string(target.Kind), target.URL)
	}
	ui.PrintInfo("Output directory", cfg.Output.RootDirectory)

	if !assumeYes && !ui.IsQuiet() {
		if !ui.Confirm(fmt.Sprintf("Download %d target(s)", len(targets))) {
			fmt.Println("Aborted.")
			_ = log.Close()
			return
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := scraper.New(cfg, log)
	if err != nil {
		ui.PrintError("Failed to initialize downloader", err.Error())
		_ = log.Close()
		os.Exit(1)
	}

	start := time.Now()
	stats, runErr := s.Run(ctx, targets)

	ui.PrintSummary(ui.Summary{
		Galleries:         stats.ProcessedGalleries.Load(),
		Downloaded:        stats.DownloadedImages.Load(),
		Skipped:           stats.SkippedExistingImages.Load(),
		Errors:            stats.Errors.Load(),
		PasswordProtected: stats.PasswordProtectedFolders(),
		Elapsed:           time.Since(start),
		OutputDir:         cfg.Output.RootDirectory,
	})

	notifier := ui.NewNotifier()

	if runErr != nil {
		log.WithError(runErr).Error("run aborted")
		ui.PrintError("Download aborted", runErr.Error())
		if notifications {
			notifier.SendError("imagefap-dl", runErr.Error())
		}
		_ = log.Close()
		os.Exit(1)
	}

	if n := stats.Errors.Load(); n > 0 {
		msg := fmt.Sprintf("Finished with %d error(s)", n)
		ui.PrintWarning(msg)
		if notifications {
			notifier.SendNotification("imagefap-dl", msg)
		}
		_ = log.Close()
		os.Exit(1)
	}

	log.InfoWithFields("run completed", map[string]interface{}{
		"downloaded": stats.DownloadedImages.Load(),
		"skipped":    stats.SkippedExistingImages.Load(),
	})
	if notifications {
		notifier.SendNotification("imagefap-dl",
			fmt.Sprintf("Downloaded %d images to %s", stats.DownloadedImages.Load(), cfg.Output.RootDirectory))
	}
	_ = log.Close()
}

// readTargetFile reads newline-delimited target URLs. Blank lines and
// lines starting with # are skipped.
func readTargetFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var urls []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, nil
}
