package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/arnavshah/oncall-api-go/pkg/app"
	"github.com/arnavshah/oncall-api-go/pkg/auth"
	"github.com/arnavshah/oncall-api-go/pkg/bot"
	"github.com/arnavshah/oncall-api-go/pkg/config"
	"github.com/arnavshah/oncall-api-go/pkg/database"
	"github.com/arnavshah/oncall-api-go/pkg/directory"
	"github.com/arnavshah/oncall-api-go/pkg/handlers"
	"github.com/arnavshah/oncall-api-go/pkg/roster"
)

type SuggestCmd struct {
	Building string `arg:"" help:"building name or code"`
	JSON     bool   `help:"print the API response body instead of text"`
}

func (cmd *SuggestCmd) Run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	a, err := app.New(ctx, *cfg, cfg.Logger())
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.Service.Suggest(ctx, cmd.Building)
	if err != nil {
		return err
	}

	if cmd.JSON {
		return writeJSON(out, s.Response())
	}
	_, err = fmt.Fprintln(out, s.Textual)
	return err
}

type ClassifyCmd struct {
	Short       string `help:"issue short description"`
	Description string `help:"issue description"`
	Zone        bool   `help:"detect the zone instead of the building"`
	Suggest     bool   `help:"also suggest the on-call person for the detected building"`
}

func (cmd *ClassifyCmd) Run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	a, err := app.New(ctx, *cfg, cfg.Logger())
	if err != nil {
		return err
	}
	defer a.Close()

	switch {
	case cmd.Zone:
		zone, err := a.Service.DetectZone(ctx, cmd.Short, cmd.Description)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, zone)
		return err
	case cmd.Suggest:
		s, err := a.Service.SuggestFromText(ctx, cmd.Short, cmd.Description)
		if err != nil {
			return err
		}
		return writeJSON(out, s.Response())
	default:
		b, err := a.Service.DetectBuilding(ctx, cmd.Short, cmd.Description)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "%s (%s) zone %s\n", b.Building, b.Code, b.Zone)
		return err
	}
}

type BuildingsCmd struct {
	ByZone bool `help:"group buildings by zone"`
}

func (cmd *BuildingsCmd) Run(cfg *config.Config, out io.Writer) error {
	dir, err := directory.Load(cfg.ZonesPath)
	if err != nil {
		return err
	}
	if cmd.ByZone {
		_, err = fmt.Fprint(out, bot.ZonesText(dir))
		return err
	}
	_, err = fmt.Fprintln(out, bot.BuildingsText(dir))
	return err
}

type ValidateCmd struct {
	Roster string `arg:"" optional:"" help:"roster file, defaults to ROSTER_PATH"`
}

func (cmd *ValidateCmd) Run(cfg *config.Config, out io.Writer) error {
	path := cmd.Roster
	if path == "" {
		path = cfg.RosterPath
	}
	shifts, err := roster.ReadFile(path)
	if err != nil {
		return err
	}
	dir, err := directory.Load(cfg.ZonesPath)
	if err != nil {
		return err
	}

	rep := roster.Validate(shifts, dir)
	fmt.Fprintf(out, "%s: %d shifts, %d zones, %d people\n", path, rep.Shifts, rep.Zones, rep.People)
	for _, e := range rep.Errors {
		fmt.Fprintln(out, "error:", e)
	}
	for _, w := range rep.Warnings {
		fmt.Fprintln(out, "warning:", w)
	}
	if !rep.Valid {
		return fmt.Errorf("%s has %d errors", path, len(rep.Errors))
	}
	return nil
}

type HistoryCmd struct {
	Date string `help:"day to show (YYYY-MM-DD), defaults to today"`
}

func (cmd *HistoryCmd) Run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	a, err := app.New(ctx, *cfg, cfg.Logger())
	if err != nil {
		return err
	}
	defer a.Close()

	date := cmd.Date
	if date == "" {
		date = a.Service.Today()
	}
	counts, err := a.Service.SelectionCounts(ctx, date)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\tSELECTIONS\n", date)
	for _, c := range counts {
		fmt.Fprintf(tw, "%s\t%d\n", c.PersonName, c.Count)
	}
	return tw.Flush()
}

type KeygenCmd struct {
	User      string `arg:"" help:"user or integration id the key is issued to"`
	RateLimit int    `help:"daily request allowance" default:"10000"`
}

// Run issues the key and registers it; /api only accepts registered keys.
func (cmd *KeygenCmd) Run(cfg *config.Config, out io.Writer) error {
	if cfg.APIMasterSecret == "" {
		return errors.New("API_MASTER_SECRET is not set")
	}
	if strings.TrimSpace(cmd.User) == "" {
		return errors.New("user is required")
	}

	db, err := database.Open(database.Options{
		DSN:        cfg.DatabaseURL,
		SQLitePath: cfg.DataPath,
		Quiet:      true,
	})
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	apiKey, err := auth.New(cfg.JWTSecret, cfg.APIMasterSecret).RegisterAPIKey(db, cmd.User, cmd.RateLimit)
	if err != nil {
		return fmt.Errorf("register key: %w", err)
	}
	_, err = fmt.Fprintf(out, "Generated Key for %s:\n%s\n", cmd.User, apiKey.Key)
	return err
}

type VersionCmd struct{}

func (cmd *VersionCmd) Run(out io.Writer) error {
	_, err := fmt.Fprintf(out, "oncall %s\n", handlers.Version)
	return err
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
