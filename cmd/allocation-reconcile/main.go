// allocation-reconcile checks that every supplier invoice item satisfies
// remaining + allocated == quantity and that every job sheet's stored total
// matches its item lines. Without --dry-run it records the findings,
// rewrites drifted job sheet totals and re-applies auto-completion to them.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/allocation-reconcile --dry-run
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/motoworks/workshop_backend/config"
	"github.com/motoworks/workshop_backend/models"
	"github.com/motoworks/workshop_backend/utils"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "Report drift without writing anything")
	continueOnError := flag.Bool("continue-on-error", false, "Skip job sheets that fail to repair and continue")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	ctx := utils.SetCorrelationIdInContext(context.Background(), uuid.NewString())

	reports, err := models.CheckAllocationDrift(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "drift check failed: %v\n", err)
		os.Exit(1)
	}
	for _, r := range reports {
		fmt.Printf("%s %s#%d: %s\n", r.CheckType, r.EntityType, r.EntityId, r.Details)
	}
	if len(reports) == 0 {
		fmt.Println("no drift found")
		return
	}
	if *dryRun {
		fmt.Printf("%d finding(s); dry run, nothing written\n", len(reports))
		return
	}

	if err := models.SaveReconciliationReports(ctx, reports); err != nil {
		fmt.Fprintf(os.Stderr, "saving findings failed: %v\n", err)
		os.Exit(1)
	}

	repaired, completed, err := rebuildJobSheetTotals(ctx, reports, *continueOnError)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	// stock quantity drift needs a person to decide which side is wrong
	fmt.Printf("%d finding(s) recorded, %d job sheet total(s) rebuilt, %d newly completed\n", len(reports), repaired, completed)
}

// rebuildJobSheetTotals repairs every job sheet total finding and re-applies
// auto-completion. completed counts only job sheets that were open before.
func rebuildJobSheetTotals(ctx context.Context, reports []*models.ReconciliationReport, continueOnError bool) (int, int, error) {
	repaired, completed := 0, 0
	for _, r := range reports {
		if r.CheckType != models.ReconciliationCheckJobSheetTotal {
			continue
		}
		before, err := models.GetJobSheet(ctx, r.EntityId)
		if err == nil {
			err = models.RepairJobSheetTotal(ctx, r.EntityId)
		}
		if err != nil {
			if continueOnError {
				fmt.Fprintf(os.Stderr, "repair of job sheet %d failed (skipping): %v\n", r.EntityId, err)
				continue
			}
			return repaired, completed, fmt.Errorf("repair of job sheet %d failed: %w", r.EntityId, err)
		}
		repaired++

		view, err := models.EvaluateJobSheetCompletion(ctx, r.EntityId)
		if err != nil {
			fmt.Fprintf(os.Stderr, "completion check of job sheet %d failed: %v\n", r.EntityId, err)
			continue
		}
		if before.State != models.JobSheetStateCompleted && view.State == models.JobSheetStateCompleted {
			completed++
		}
	}
	return repaired, completed, nil
}
