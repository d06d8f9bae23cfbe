package cmd

import (
	"context"
	"fmt"

	"measurement-extractor/core/config"
	"measurement-extractor/core/database"
	"measurement-extractor/core/logger"
	"measurement-extractor/core/storage"
	"measurement-extractor/feature/measurements"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for the extract command
	showConflicts bool
	debugOutput   bool
	maxRows       int
	outputPath    string
	jsonReport    bool
	uploadOutput  bool
	persistRun    bool
)

// extractCmd runs one extraction described by a YAML document.
var extractCmd = &cobra.Command{
	Use:   "extract <config.yaml|->",
	Short: "Extract and reconcile measurements into a wide table",
	Long: `Extract measurements for the items listed in an extraction document.

The document names the record stream and the items of interest:

  chart: mimic-iii-clinical-database-1.4/CHARTEVENTS.csv.gz
  items_of_interest:
    '226512': ['Admission Weight (Kg)', 'WEIGHT', 'same']
    '226707': ['Height', 'HEIGHT', 'same']
    '220179': ['Non Invasive Blood Pressure systolic', 'NIBP_SYS', 'mean']

Each item has a label, an output header and a merge policy, one of
same, mean, median, first, min, max. "same" discards an admission whose
readings disagree.

Examples:
  # Read the document from a file
  measurements extract height.yaml

  # Read the document from stdin and list every conflict
  cat height.yaml | measurements extract - --show-conflicts

  # Scan the first 100000 rows only, writing DEBUG.csv.gz
  measurements extract height.yaml --max-rows 100000 --debug

  # Upload the table and store the report
  measurements extract height.yaml --upload --persist`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().BoolVar(&showConflicts, "show-conflicts", false, "List every conflicting measurement")
	extractCmd.Flags().BoolVar(&debugOutput, "debug", false, "Write the table to the debug file in the data directory")
	extractCmd.Flags().IntVar(&maxRows, "max-rows", 0, "Stop after this many data rows (0 scans everything)")
	extractCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the table to this path")
	extractCmd.Flags().BoolVar(&jsonReport, "json", false, "Print the report as JSON")
	extractCmd.Flags().BoolVar(&uploadOutput, "upload", false, "Upload the table to object storage")
	extractCmd.Flags().BoolVar(&persistRun, "persist", false, "Store the report in the run database")

	RootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if maxRows < 0 {
		return fmt.Errorf("--max-rows must not be negative")
	}

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	doc, err := measurements.LoadDocumentFile(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}

	// Object storage is only needed for s3:// sources and uploads
	var client storage.Client
	if uploadOutput || storage.IsObjectURI(doc.Chart) {
		client, err = storage.NewClient(cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to connect to storage: %w", err)
		}
	}

	var store *measurements.Store
	if persistRun {
		db, err := database.Connect(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		store = measurements.NewStore(db)
		if err := store.Migrate(); err != nil {
			return err
		}
	}

	svc := measurements.NewService(client, store, cfg.Extract, cfg.Storage, l)
	report, err := svc.Run(ctx, doc, measurements.RunOptions{
		OutputOptions: measurements.OutputOptions{
			Output:  outputPath,
			Debug:   debugOutput,
			MaxRows: maxRows,
		},
		Upload:  uploadOutput,
		Persist: persistRun,
	})
	if report != nil {
		if printErr := printReport(cmd, report); printErr != nil {
			return printErr
		}
	}
	if err != nil {
		return err
	}

	l.Info("Extraction finished",
		zap.String("run_id", report.RunID),
		zap.String("output", report.Output),
		zap.Int("complete_admissions", report.CompleteAdmissions),
	)
	return nil
}

// printReport writes the report to the command's stdout.
func printReport(cmd *cobra.Command, report *measurements.Report) error {
	out := cmd.OutOrStdout()
	if jsonReport {
		if !showConflicts {
			report = report.WithoutDetails()
		}
		return report.RenderJSON(out)
	}
	return report.Render(out, showConflicts)
}
