package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/san-kum/ghdsim/internal/analysis"
	"github.com/san-kum/ghdsim/internal/storage"
	"github.com/spf13/cobra"
)

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	profiles, err := st.LoadProfiles(runID, false)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tATOMS\tCENTRE\tWIDTH")
	widths := make([]float64, 0, len(profiles.Values))
	for i, p := range profiles.Values {
		n, mean, width, err := analysis.Moments(meta.Grid.Positions, p)
		if err != nil {
			return fmt.Errorf("snapshot %d: %w", i, err)
		}
		widths = append(widths, width)
		fmt.Fprintf(w, "%.4f\t%.6f\t%.6f\t%.6f\n", profiles.Times[i], n, mean, width)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(profiles.Times) < 2 {
		return nil
	}
	interval := profiles.Times[1] - profiles.Times[0]
	f, err := analysis.DominantFrequency(widths, interval)
	if errors.Is(err, analysis.ErrShortSeries) {
		fmt.Println("\ntoo few snapshots for a width spectrum")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("\ndominant width frequency: %.4f (angular %.4f)\n", f, 2*math.Pi*f)
	return nil
}
