package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vectral/lazyvec/pkg/config"
	"github.com/vectral/lazyvec/pkg/lazyvec"
	"github.com/vectral/lazyvec/pkg/logger"
	"github.com/vectral/lazyvec/pkg/vecerrors"
)

var version = "0.1.0"

func main() {
	var configFile, logLevel string

	root := &cobra.Command{
		Use:   "lazyvec",
		Short: "LazyVec - lazy vector views over Arrow columnar data",
		Long: `LazyVec wraps Arrow chunked arrays in lazy vectors that defer
materialization until a consumer actually needs contiguous data. This tool
inspects Arrow IPC files through that lens and round-trips vector state.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Init(logger.Config{Level: logLevel, Encoding: "console"})
		},
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "configuration file (YAML)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("LazyVec v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	var inspectJSON bool
	inspectCmd := &cobra.Command{
		Use:   "inspect <file.arrow>",
		Short: "Describe each column of an Arrow IPC file without materializing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			return inspectFile(args[0], cfg, inspectJSON)
		},
	}
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "emit JSON instead of text")
	root.AddCommand(inspectCmd)

	var stripNuls bool
	materializeCmd := &cobra.Command{
		Use:   "materialize <file.arrow>",
		Short: "Wrap and fully materialize every supported column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			if stripNuls {
				cfg.StripNuls = true
			}
			return materializeFile(args[0], cfg)
		},
	}
	materializeCmd.Flags().BoolVar(&stripNuls, "strip-nuls", false, "strip embedded nul bytes from strings instead of failing")
	root.AddCommand(materializeCmd)

	var dumpColumn int
	var dumpOut, dumpCompression string
	dumpCmd := &cobra.Command{
		Use:   "dump <file.arrow>",
		Short: "Serialize one column's vector state to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			if dumpCompression != "" {
				cfg.Compression = dumpCompression
			}
			return dumpColumnState(args[0], dumpColumn, dumpOut, cfg)
		},
	}
	dumpCmd.Flags().IntVar(&dumpColumn, "column", 0, "column index to dump")
	dumpCmd.Flags().StringVar(&dumpOut, "out", "vector.lvst", "output state file")
	dumpCmd.Flags().StringVar(&dumpCompression, "compression", "", "state codec (none, zstd, s2)")
	root.AddCommand(dumpCmd)

	restoreCmd := &cobra.Command{
		Use:   "restore <file.lvst>",
		Short: "Restore a vector from serialized state and summarize it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			return restoreState(args[0], cfg)
		},
	}
	root.AddCommand(restoreCmd)

	err := root.Execute()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// loadColumns reads an Arrow IPC file and reassembles each column as a
// chunked array (one chunk per record batch).
func loadColumns(path string) ([]arrow.Field, []*arrow.Chunked, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	fr, err := ipc.NewFileReader(f, ipc.WithAllocator(memory.DefaultAllocator))
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer fr.Close()

	schema := fr.Schema()
	perColumn := make([][]arrow.Array, len(schema.Fields()))
	for i := 0; i < fr.NumRecords(); i++ {
		rec, err := fr.Record(i)
		if err != nil {
			return nil, nil, fmt.Errorf("reading record %d: %w", i, err)
		}
		for c := 0; c < int(rec.NumCols()); c++ {
			col := rec.Column(c)
			col.Retain()
			perColumn[c] = append(perColumn[c], col)
		}
	}

	columns := make([]*arrow.Chunked, len(perColumn))
	for c, chunks := range perColumn {
		columns[c] = arrow.NewChunked(schema.Field(c).Type, chunks)
		for _, chunk := range chunks {
			chunk.Release()
		}
	}
	return schema.Fields(), columns, nil
}

type columnReport struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Kind         string `json:"kind,omitempty"`
	Inspect      string `json:"inspect,omitempty"`
	Len          int    `json:"len"`
	Nulls        int    `json:"nulls"`
	Declined     bool   `json:"declined"`
	DeclinedWhy  string `json:"declined_why,omitempty"`
	Materialized bool   `json:"materialized"`
}

func inspectFile(path string, cfg *config.Config, asJSON bool) error {
	fields, columns, err := loadColumns(path)
	if err != nil {
		return err
	}
	defer releaseAll(columns)

	reports := make([]columnReport, len(columns))
	for c, chunked := range columns {
		rep := columnReport{
			Name:  fields[c].Name,
			Type:  chunked.DataType().String(),
			Len:   chunked.Len(),
			Nulls: chunked.NullN(),
		}
		vec, err := lazyvec.New(chunked, cfg)
		if err != nil {
			if !vecerrors.IsUnsupported(err) {
				return err
			}
			rep.Declined = true
			rep.DeclinedWhy = err.Error()
		} else {
			rep.Kind = vec.Kind().String()
			rep.Inspect = vec.Inspect()
			rep.Materialized = vec.IsMaterialized()
			vec.Release()
		}
		reports[c] = rep
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	}
	for _, rep := range reports {
		if rep.Declined {
			fmt.Printf("%-20s %-24s declined: %s\n", rep.Name, rep.Type, rep.DeclinedWhy)
			continue
		}
		fmt.Printf("%-20s %-24s %s\n", rep.Name, rep.Type, rep.Inspect)
	}
	return nil
}

func materializeFile(path string, cfg *config.Config) error {
	log := logger.Get()
	fields, columns, err := loadColumns(path)
	if err != nil {
		return err
	}
	defer releaseAll(columns)

	for c, chunked := range columns {
		name := fields[c].Name
		vec, err := lazyvec.New(chunked, cfg)
		if err != nil {
			if vecerrors.IsUnsupported(err) {
				log.Info("skipping column", zap.String("column", name), zap.Error(err))
				continue
			}
			return err
		}

		start := time.Now()
		if err := materializeVector(vec); err != nil {
			vec.Release()
			return fmt.Errorf("column %s: %w", name, err)
		}
		log.Info("materialized column",
			zap.String("column", name),
			zap.String("kind", vec.Kind().String()),
			zap.Int("len", vec.Len()),
			zap.Int("nulls", vec.NullCount()),
			zap.Duration("elapsed", time.Since(start)))
		vec.Release()
	}
	return nil
}

func materializeVector(v lazyvec.Vector) error {
	switch vec := v.(type) {
	case *lazyvec.Float64Vector:
		vec.Materialize()
	case *lazyvec.Int32Vector:
		vec.Materialize()
	case *lazyvec.FactorVector:
		vec.Materialize()
	case *lazyvec.StringVector:
		if _, err := vec.Materialize(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown vector kind %s", v.Kind())
	}
	return nil
}

func dumpColumnState(path string, column int, out string, cfg *config.Config) error {
	fields, columns, err := loadColumns(path)
	if err != nil {
		return err
	}
	defer releaseAll(columns)

	if column < 0 || column >= len(columns) {
		return vecerrors.Newf(vecerrors.ErrorTypeValidation,
			"column %d out of range (file has %d columns)", column, len(columns))
	}

	vec, err := lazyvec.New(columns[column], cfg)
	if err != nil {
		return err
	}
	defer vec.Release()

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := lazyvec.WriteState(f, vec, cfg.Compression); err != nil {
		return err
	}
	logger.Get().Info("wrote vector state",
		zap.String("column", fields[column].Name),
		zap.String("kind", vec.Kind().String()),
		zap.String("codec", cfg.Compression),
		zap.String("out", out))
	return nil
}

func restoreState(path string, cfg *config.Config) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	vec, err := lazyvec.ReadState(f, cfg)
	if err != nil {
		return err
	}
	defer vec.Release()

	fmt.Printf("kind=%s len=%d nulls=%d materialized=%t\n",
		vec.Kind(), vec.Len(), vec.NullCount(), vec.IsMaterialized())
	fmt.Println(vec.Inspect())
	return nil
}

func releaseAll(columns []*arrow.Chunked) {
	for _, c := range columns {
		c.Release()
	}
}
