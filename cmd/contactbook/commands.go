package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"contactbook/internal/blob"
	"contactbook/internal/core"
	"contactbook/internal/transfer"
	"contactbook/pkg/domain"
)

func personFlags(required bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "last", Usage: "last name", Required: required},
		&cli.StringFlag{Name: "first", Usage: "first name", Required: required},
		&cli.StringFlag{Name: "nick", Usage: "nickname", Required: required},
		&cli.StringFlag{Name: "phone", Usage: "phone number"},
		&cli.StringFlag{Name: "email", Usage: "e-mail address"},
		&cli.StringFlag{Name: "address", Usage: "postal address"},
		&cli.StringFlag{Name: "birth", Usage: "birth date, YYYY-MM-DD"},
	}
}

// applyPersonFlags copies every flag that was set onto p.
func applyPersonFlags(c *cli.Context, op string, p *domain.Person) error {
	fields := map[string]*string{
		"last":    &p.LastName,
		"first":   &p.FirstName,
		"nick":    &p.Nickname,
		"phone":   &p.Phone,
		"email":   &p.Email,
		"address": &p.Address,
	}
	for name, dst := range fields {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}
	if c.IsSet("birth") {
		birth, err := domain.ParseDate(strings.TrimSpace(c.String("birth")))
		if err != nil {
			return domain.NewValidationError(op, domain.FieldBirthDate, "must be a date in YYYY-MM-DD format")
		}
		p.BirthDate = birth
	}
	return nil
}

func parseID(c *cli.Context) (int64, error) {
	if c.Args().Len() != 1 {
		return 0, fmt.Errorf("%s: expected exactly one contact id", c.Command.Name)
	}
	raw := c.Args().First()
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid contact id %q", c.Command.Name, raw)
	}
	return id, nil
}

func notFound(id int64) error {
	return fmt.Errorf("contact %d not found", id)
}

func (e *env) listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List contacts ordered by name",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "filter", Aliases: []string{"f"}, Usage: "only show contacts whose name, nickname, phone or e-mail contains this text"},
		},
		Action: func(c *cli.Context) error {
			svc, err := e.service(c)
			if err != nil {
				return err
			}
			dir := core.NewDirectory(svc)
			if err := dir.Reload(c.Context); err != nil {
				return err
			}
			shown := dir.Filter(c.String("filter"))
			if err := writeTable(e.stdout, shown); err != nil {
				return err
			}
			_, err = fmt.Fprintln(e.stdout, dir.Stats(len(shown)))
			return err
		},
	}
}

func (e *env) searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Find contacts whose first or last name contains a term",
		ArgsUsage: "<term>",
		Action: func(c *cli.Context) error {
			svc, err := e.service(c)
			if err != nil {
				return err
			}
			people, err := svc.SearchByName(c.Context, strings.Join(c.Args().Slice(), " "))
			if err != nil {
				return err
			}
			return writeTable(e.stdout, people)
		},
	}
}

func (e *env) showCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show one contact",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := parseID(c)
			if err != nil {
				return err
			}
			svc, err := e.service(c)
			if err != nil {
				return err
			}
			p, found, err := svc.FindByID(c.Context, id)
			if err != nil {
				return err
			}
			if !found {
				return notFound(id)
			}
			return writeDetail(e.stdout, p)
		},
	}
}

func (e *env) addCommand() *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Add a contact",
		Flags: personFlags(true),
		Action: func(c *cli.Context) error {
			var p domain.Person
			if err := applyPersonFlags(c, core.OpCreate, &p); err != nil {
				return err
			}
			svc, err := e.service(c)
			if err != nil {
				return err
			}
			created, err := svc.Create(c.Context, p)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(e.stdout, "added contact %d: %s\n", created.ID, created.FullName())
			return err
		},
	}
}

func (e *env) editCommand() *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Change a contact; fields not given keep their value",
		ArgsUsage: "<id>",
		Flags:     append(personFlags(false), &cli.BoolFlag{Name: "clear-birth", Usage: "remove the birth date"}),
		Action: func(c *cli.Context) error {
			id, err := parseID(c)
			if err != nil {
				return err
			}
			svc, err := e.service(c)
			if err != nil {
				return err
			}
			p, found, err := svc.FindByID(c.Context, id)
			if err != nil {
				return err
			}
			if !found {
				return notFound(id)
			}
			if err := applyPersonFlags(c, core.OpUpdate, &p); err != nil {
				return err
			}
			if c.Bool("clear-birth") {
				p.BirthDate = nil
			}
			updated, err := svc.Update(c.Context, p)
			if err != nil {
				return err
			}
			if !updated {
				return notFound(id)
			}
			_, err = fmt.Fprintf(e.stdout, "updated contact %d\n", id)
			return err
		},
	}
}

func (e *env) deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a contact",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := parseID(c)
			if err != nil {
				return err
			}
			svc, err := e.service(c)
			if err != nil {
				return err
			}
			deleted, err := svc.Delete(c.Context, id)
			if err != nil {
				return err
			}
			if !deleted {
				return notFound(id)
			}
			_, err = fmt.Fprintf(e.stdout, "deleted contact %d\n", id)
			return err
		},
	}
}

func (e *env) exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write every contact to the export store",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Value: string(transfer.FormatJSON), Usage: "json or csv"},
		},
		Action: func(c *cli.Context) error {
			format, err := transfer.ParseFormat(c.String("format"))
			if err != nil {
				return err
			}
			svc, err := e.service(c)
			if err != nil {
				return err
			}
			store, err := e.blobStore(c)
			if err != nil {
				return err
			}
			info, err := transfer.NewExporter(svc, store, transfer.WithLogger(e.logger)).Export(c.Context, format)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(e.stdout, "exported %s contacts to %s (%d bytes)\n", info.Metadata["records"], info.Key, info.Size)
			if err != nil {
				return err
			}
			if url, perr := store.PresignURL(c.Context, info.Key, blob.SignedURLOptions{}); perr == nil {
				_, err = fmt.Fprintln(e.stdout, url)
			} else if !errors.Is(perr, blob.ErrUnsupported) {
				e.logger.Warn("presign export", "key", info.Key, "error", perr)
			}
			return err
		},
	}
}

func (e *env) importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Create contacts from an export; existing names are skipped",
		ArgsUsage: "<key>",
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 1 {
				return errors.New("import: expected exactly one export key")
			}
			svc, err := e.service(c)
			if err != nil {
				return err
			}
			store, err := e.blobStore(c)
			if err != nil {
				return err
			}
			report, err := transfer.NewImporter(svc, store, transfer.WithLogger(e.logger)).Import(c.Context, c.Args().First())
			if werr := writeReport(e.stdout, report); werr != nil && err == nil {
				err = werr
			}
			return err
		},
	}
}

func (e *env) exportsCommand() *cli.Command {
	return &cli.Command{
		Name:  "exports",
		Usage: "List stored exports",
		Action: func(c *cli.Context) error {
			store, err := e.blobStore(c)
			if err != nil {
				return err
			}
			infos, err := transfer.List(c.Context, store)
			if err != nil {
				return err
			}
			return writeExports(e.stdout, infos)
		},
	}
}
