// Command docforge is a CLI client for the docforge document builder service.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	u "github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mkarelin/docforge/internal/config"
	"github.com/mkarelin/docforge/internal/errs"
	"github.com/mkarelin/docforge/internal/export"
	"github.com/mkarelin/docforge/internal/model"
	"github.com/mkarelin/docforge/internal/outline"
	"github.com/mkarelin/docforge/internal/repository"
	"github.com/mkarelin/docforge/internal/service"
	"github.com/mkarelin/docforge/internal/session"
	"github.com/mkarelin/docforge/internal/transport"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// app bundles the wired client stack for command handlers.
type app struct {
	auth     *service.Auth
	projects *repository.Projects
	gen      *service.Generator
	export   *export.Client
	log      *zap.Logger
}

func usage() {
	fmt.Fprintf(os.Stderr, `docforge CLI
Usage:
  docforge <cmd> [args]

Commands:
  version
  register  -u <username> -p <password>          (stores token)
  login     -u <username> -p <password>          (stores token)
  logout
  whoami
  list
  show      -id <project>
  create    -title T -type document|presentation [-topic S]
            [-sections "A,B,C" | -suggest [-n N]]
  outline   -topic S -type document|presentation [-n N]
  generate  -id <project>                        (then re-fetches)
  refine    -project <id> -section <id> -prompt "instruction"
  feedback  -section <id> [-rating like|dislike|none] [-comment "text"]
  export    -id <project> [-o dir]
  rm        -id <project>
`)
	os.Exit(2)
}

func main() {
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	cfg, err := config.Load()
	if err != nil {
		fail(err)
	}
	log := newLogger(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	store := session.NewFileStore()
	tr := transport.New(cfg.APIURL, store, log,
		transport.WithTimeout(cfg.Timeout),
		transport.WithSessionExpiredHook(func() {
			fmt.Fprintln(os.Stderr, "session expired; run `docforge login`")
		}),
	)

	a := &app{
		auth:     service.NewAuth(tr, store, log),
		projects: repository.NewProjects(tr, log),
		gen:      service.NewGenerator(tr, log),
		export:   export.New(tr, log),
		log:      log,
	}

	ctx := context.Background()

	switch cmd {
	case "version":
		fmt.Printf("docforge %s (%s)\n", version, buildDate)
	case "register", "login":
		a.cmdAuth(ctx, cmd, args)
	case "logout":
		if err := a.auth.Logout(); err != nil {
			fail(err)
		}
		fmt.Println("ok")
	case "whoami":
		line, err := whoamiLine(store)
		if err != nil {
			fail(err)
		}
		fmt.Println(line)
	case "list":
		a.cmdList(ctx)
	case "show":
		a.cmdShow(ctx, args)
	case "create":
		a.cmdCreate(ctx, args)
	case "outline":
		a.cmdOutline(ctx, args)
	case "generate":
		a.cmdGenerate(ctx, args)
	case "refine":
		a.cmdRefine(ctx, args)
	case "feedback":
		a.cmdFeedback(ctx, args)
	case "export":
		a.cmdExport(ctx, args)
	case "rm":
		a.cmdDelete(ctx, args)
	default:
		usage()
	}
}

func (a *app) cmdAuth(ctx context.Context, cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	user := fs.String("u", "", "username")
	pass := fs.String("p", "", "password")
	_ = fs.Parse(args)

	var err error
	if cmd == "register" {
		err = a.auth.Register(ctx, *user, *pass)
	} else {
		err = a.auth.Login(ctx, *user, *pass)
	}
	if err != nil {
		fail(err)
	}
	fmt.Println("ok")
}

func (a *app) cmdList(ctx context.Context) {
	list, err := a.projects.List(ctx)
	if err != nil {
		fail(err)
	}
	printJSON(list)
}

func (a *app) cmdShow(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	id := fs.String("id", "", "project id")
	_ = fs.Parse(args)

	p, err := a.projects.Get(ctx, mustUUID(*id))
	if err != nil {
		fail(err)
	}
	printJSON(p)
}

func (a *app) cmdCreate(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	title := fs.String("title", "", "project title")
	topic := fs.String("topic", "", "topic guiding AI generation")
	typ := fs.String("type", "", "document|presentation")
	sections := fs.String("sections", "", "comma-separated section titles")
	suggest := fs.Bool("suggest", false, "ask the backend to suggest the outline")
	n := fs.Int("n", 5, "suggested outline length")
	_ = fs.Parse(args)

	docType := model.DocType(*typ)

	var b *outline.Builder
	switch {
	case *suggest:
		headings, err := a.gen.SuggestOutline(ctx, *topic, docType, *n)
		if err != nil {
			fail(err)
		}
		b = outline.FromHeadings(headings)
	default:
		b = outline.New()
		for _, t := range strings.Split(*sections, ",") {
			if t = strings.TrimSpace(t); t != "" {
				b.Add(t)
			}
		}
	}

	p, err := a.projects.Create(ctx, *title, *topic, docType, b.Drafts())
	if err != nil {
		fail(err)
	}
	printJSON(p)
}

func (a *app) cmdOutline(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("outline", flag.ExitOnError)
	topic := fs.String("topic", "", "topic")
	typ := fs.String("type", "", "document|presentation")
	n := fs.Int("n", 5, "number of headings")
	_ = fs.Parse(args)

	headings, err := a.gen.SuggestOutline(ctx, *topic, model.DocType(*typ), *n)
	if err != nil {
		fail(err)
	}
	printJSON(headings)
}

func (a *app) cmdGenerate(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	id := fs.String("id", "", "project id")
	_ = fs.Parse(args)

	pid := mustUUID(*id)
	if err := a.gen.GenerateAll(ctx, pid); err != nil {
		fail(err)
	}
	// Re-fetch: the generation response is only a success marker.
	p, err := a.projects.Get(ctx, pid)
	if err != nil {
		fail(err)
	}
	a.gen.LoadProject(p)
	printJSON(p)
}

func (a *app) cmdRefine(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("refine", flag.ExitOnError)
	projectID := fs.String("project", "", "project id")
	sectionID := fs.String("section", "", "section id")
	prompt := fs.String("prompt", "", "refinement instruction")
	_ = fs.Parse(args)

	p, err := a.projects.Get(ctx, mustUUID(*projectID))
	if err != nil {
		fail(err)
	}
	a.gen.LoadProject(p)

	content, err := a.gen.RefineSection(ctx, mustUUID(*sectionID), *prompt)
	if err != nil {
		fail(err)
	}
	fmt.Println(content)
}

func (a *app) cmdFeedback(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("feedback", flag.ExitOnError)
	sectionID := fs.String("section", "", "section id")
	rating := fs.String("rating", "none", "like|dislike|none")
	comment := fs.String("comment", "", "free-text comment")
	_ = fs.Parse(args)

	err := a.gen.SubmitFeedback(ctx, mustUUID(*sectionID), model.Rating(*rating), *comment)
	switch {
	case errors.Is(err, errs.ErrValidation):
		fail(err)
	case err != nil:
		// Best-effort: lost feedback is acceptable, don't fail the CLI.
		fmt.Fprintln(os.Stderr, "feedback not recorded:", err)
	default:
		fmt.Println("ok")
	}
}

func (a *app) cmdExport(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	id := fs.String("id", "", "project id")
	out := fs.String("o", ".", "output directory")
	_ = fs.Parse(args)

	p, err := a.projects.Get(ctx, mustUUID(*id))
	if err != nil {
		fail(err)
	}
	if !export.CanExport(p) {
		fmt.Fprintln(os.Stderr, "warning: no section has content yet")
	}
	artifact, err := a.export.Export(ctx, p)
	if err != nil {
		fail(err)
	}
	dst := filepath.Join(*out, artifact.Filename)
	if err := os.WriteFile(dst, artifact.Data, 0o644); err != nil {
		fail(err)
	}
	fmt.Println(dst)
}

func (a *app) cmdDelete(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("rm", flag.ExitOnError)
	id := fs.String("id", "", "project id")
	_ = fs.Parse(args)

	if err := a.projects.Delete(ctx, mustUUID(*id)); err != nil {
		fail(err)
	}
	fmt.Println("ok")
}

// ---- helpers ----

// whoamiLine reports the logged-in state from the stored token. The subject
// and expiry come from the JWT claims, read without signature validation.
func whoamiLine(store session.Store) (string, error) {
	tok, ok := store.Token()
	if !ok {
		return "", errors.New("not logged in")
	}
	var claims jwt.RegisteredClaims
	_, _ = jwt.ParseWithClaims(tok, &claims, func(*jwt.Token) (any, error) { return nil, nil },
		jwt.WithoutClaimsValidation(),
	)
	if claims.Subject == "" {
		return "logged in", nil
	}
	if claims.ExpiresAt != nil {
		return fmt.Sprintf("logged in as %s (token expires %s)",
			claims.Subject, claims.ExpiresAt.UTC().Format(time.RFC3339)), nil
	}
	return "logged in as " + claims.Subject, nil
}

func newLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func mustUUID(s string) u.UUID {
	id, err := u.FromString(s)
	if err != nil {
		fail(fmt.Errorf("bad id %q: %w", s, err))
	}
	return id
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
