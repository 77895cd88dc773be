package main

import (
	"flag"
	"os"

	"github.com/gridforge/gridforge-backend/cmd"
)

func main() {
	shouldRunMigrations := flag.Bool("migrations", false, "Run database migrations")
	applyRulesProject := flag.String("apply-rules", "", "Run the rule engine on the given project id")
	rollbackBatch := flag.String("rollback-batch", "", "Roll back the given batch operation id")
	rollbackReason := flag.String("reason", "", "Reason recorded with -rollback-batch")
	flag.Parse()

	var err error
	switch {
	case *shouldRunMigrations:
		err = cmd.RunMigrations()
	case *applyRulesProject != "":
		err = cmd.RunApplyRules(*applyRulesProject)
	case *rollbackBatch != "":
		err = cmd.RunRollbackBatch(*rollbackBatch, *rollbackReason)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		os.Exit(1)
	}
}
