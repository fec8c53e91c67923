// Command synonyms runs the offline synonym review loop against the curated graph.
//
//	synonyms export -value V -origin O [-threshold T] [-out file.csv]
//	synonyms import -value V -origin O [-in file.csv] [-operator NAME]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/yungbote/mdb-curator/internal/app"
	"github.com/yungbote/mdb-curator/internal/domain/vocab"
	"github.com/yungbote/mdb-curator/internal/modules/review"
	"github.com/yungbote/mdb-curator/internal/platform/ctxutil"
	"github.com/yungbote/mdb-curator/internal/platform/logger"
	"github.com/yungbote/mdb-curator/internal/platform/shutdown"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage:")
	fmt.Fprintln(os.Stderr, "  synonyms export -value V -origin O [-threshold T] [-out file.csv]")
	fmt.Fprintln(os.Stderr, "  synonyms import -value V -origin O [-in file.csv] [-operator NAME]")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	var err error
	switch os.Args[1] {
	case "export":
		err = runExport(ctx, os.Args[2:])
	case "import":
		err = runImport(ctx, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "synonyms %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

type targetFlags struct {
	value  string
	origin string
}

func (t *targetFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&t.value, "value", "", "target term value")
	fs.StringVar(&t.origin, "origin", "", "target term origin_name")
}

func (t targetFlags) term() vocab.Term {
	return vocab.Term{Value: t.value, OriginName: t.origin}
}

func openCore(ctx context.Context) (*app.Core, func(), error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, nil, err
	}
	core, err := app.NewCore(ctx, log, cfg)
	if err != nil {
		log.Sync()
		return nil, nil, err
	}
	return core, func() {
		_ = core.Close(context.Background())
		log.Sync()
	}, nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	var target targetFlags
	target.register(fs)
	threshold := fs.Float64("threshold", -1, "minimum similarity in [0,1] (default from SYNONYM_THRESHOLD)")
	out := fs.String("out", "", "review file to write (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	core, done, err := openCore(ctx)
	if err != nil {
		return err
	}
	defer done()

	th := *threshold
	if th == -1 {
		th = core.Curation.DefaultThreshold()
	}
	cands, err := core.Curation.FindSynonyms(ctx, target.term(), th)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if err := review.ExportCandidates(w, cands); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%d candidates for %s at threshold %v\n", len(cands), target.term(), th)
	return nil
}

func runImport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	var target targetFlags
	target.register(fs)
	in := fs.String("in", "", "edited review file (default stdin)")
	operator := fs.String("operator", os.Getenv("USER"), "operator recorded in the audit trail")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := target.term().Validate(); err != nil {
		return err
	}

	var r io.Reader = os.Stdin
	if *in != "" {
		f, err := os.Open(*in)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	confirmed, err := review.ImportConfirmed(r)
	if err != nil {
		return err
	}

	core, done, err := openCore(ctx)
	if err != nil {
		return err
	}
	defer done()

	ctx = ctxutil.WithCaller(ctx, &ctxutil.Caller{RequestID: uuid.NewString(), Operator: *operator})
	results, err := core.Curation.LinkConfirmed(ctx, target.term(), confirmed)
	if err != nil {
		return err
	}
	failed := 0
	for _, res := range results {
		switch {
		case res.Error != "":
			failed++
			fmt.Fprintf(os.Stderr, "FAIL  %s: %s\n", res.Candidate.Term(), res.Error)
		case res.Skipped != "":
			fmt.Fprintf(os.Stderr, "SKIP  %s: %s\n", res.Candidate.Term(), res.Skipped)
		default:
			fmt.Fprintf(os.Stderr, "OK    %s: %s\n", res.Candidate.Term(), res.Outcome.Branch)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d confirmed rows failed", failed, len(results))
	}
	return nil
}
