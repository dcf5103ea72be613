package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/codevault/codevault/internal/models"
	"github.com/codevault/codevault/internal/vault"
)

const maxCommentWidth = 40

// List prints every record in the snapshot.
func (a *App) List(ctx context.Context) error {
	a.printRecords(a.vault.Records())
	return nil
}

// Search prints the records matching query.
func (a *App) Search(ctx context.Context, query string) error {
	a.printRecords(vault.Search(query, a.vault.Records()))
	return nil
}

// Show prints one record including its password.
func (a *App) Show(ctx context.Context, id string) error {
	rec, ok := a.find(id)
	if !ok {
		return a.report(vault.ErrNotFound)
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", rec.ID)
	fmt.Fprintf(tw, "Platform:\t%s\n", rec.Platform)
	fmt.Fprintf(tw, "Username:\t%s\n", rec.Username)
	fmt.Fprintf(tw, "Password:\t%s\n", rec.Password)
	fmt.Fprintf(tw, "Comment:\t%s\n", rec.Comment)
	if att := rec.Attachment; att != nil {
		fmt.Fprintf(tw, "Attachment:\t%s (%s, %d bytes)\n", att.FileName, att.MimeType, att.SizeBytes)
		fmt.Fprintf(tw, "URL:\t%s\n", att.URL)
	}
	fmt.Fprintf(tw, "Created:\t%s\n", rec.CreatedAt.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(tw, "Updated:\t%s\n", rec.UpdatedAt.Local().Format("2006-01-02 15:04"))
	return tw.Flush()
}

// Add prompts for a new record.
func (a *App) Add(ctx context.Context) error {
	in, err := a.promptInput(models.Record{}, false)
	if err != nil {
		return a.report(err)
	}

	id, err := a.vault.Create(ctx, in)
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Record %s created.\n", id)
	return nil
}

// Edit prompts for new values of record id; empty answers keep the current
// value.
func (a *App) Edit(ctx context.Context, id string) error {
	rec, ok := a.find(id)
	if !ok {
		return a.report(vault.ErrNotFound)
	}

	in, err := a.promptInput(rec, true)
	if err != nil {
		return a.report(err)
	}

	keep := true
	if in.File == nil && rec.Attachment != nil {
		keep, err = Confirm(a.reader, fmt.Sprintf("Keep attachment %s?", rec.Attachment.FileName), true, a.out)
		if err != nil {
			return a.report(err)
		}
	}

	if err := a.vault.Update(ctx, id, in, keep); err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Record %s updated.\n", id)
	return nil
}

// Delete removes record id after confirmation.
func (a *App) Delete(ctx context.Context, id string) error {
	label := id
	if rec, ok := a.find(id); ok {
		label = fmt.Sprintf("%s (%s)", rec.Platform, id)
	}

	ok, err := Confirm(a.reader, fmt.Sprintf("Delete %s?", label), false, a.out)
	if err != nil {
		return a.report(err)
	}
	if !ok {
		fmt.Fprintln(a.out, "Cancelled.")
		return nil
	}

	if err := a.vault.Delete(ctx, id); err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, "Deleted.")
	return nil
}

// Platforms prints the distinct platform names.
func (a *App) Platforms(ctx context.Context) error {
	for _, p := range vault.UniquePlatforms(a.vault.Records()) {
		fmt.Fprintln(a.out, p)
	}
	return nil
}

// Refresh re-reads the vault.
func (a *App) Refresh(ctx context.Context) error {
	if err := a.vault.Refresh(ctx); err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "%d records.\n", len(a.vault.Records()))
	return nil
}

// promptInput asks for each field. With editing set the current values of
// cur are offered as defaults, including the password.
func (a *App) promptInput(cur models.Record, editing bool) (vault.Input, error) {
	platform, err := GetTextWithDefault(a.reader, "Platform", cur.Platform, a.out)
	if err != nil {
		return vault.Input{}, err
	}
	if suggestions := vault.SuggestPlatforms(platform, vault.UniquePlatforms(a.vault.Records())); len(suggestions) > 0 {
		fmt.Fprintf(a.out, "Similar platforms: %s\n", strings.Join(suggestions, ", "))
	}

	username, err := a.promptClearable("Username", cur.Username, editing)
	if err != nil {
		return vault.Input{}, err
	}

	prompt := "Password"
	if editing {
		prompt = "Password (empty keeps current)"
	}
	password, err := GetPassword(prompt, a.out)
	if err != nil {
		return vault.Input{}, err
	}
	if editing && password == "" {
		password = cur.Password
	}

	comment, err := a.promptClearable("Comment", cur.Comment, editing)
	if err != nil {
		return vault.Input{}, err
	}

	path, err := GetSimpleText(a.reader, "Attachment file path (empty for none)", a.out)
	if err != nil {
		return vault.Input{}, err
	}

	in := vault.Input{Platform: platform, Username: username, Password: password, Comment: comment}
	if path != "" {
		data, err := readFile(path)
		if err != nil {
			return vault.Input{}, fmt.Errorf("read attachment: %w", err)
		}
		in.File = &models.AttachmentFile{Name: filepath.Base(path), Data: data}
	}
	return in, nil
}

// clearValue, typed while editing, empties an optional field instead of
// keeping its current value.
const clearValue = "-"

func (a *App) promptClearable(prompt, cur string, editing bool) (string, error) {
	if editing && cur != "" {
		prompt += " ('" + clearValue + "' clears)"
	}
	s, err := GetTextWithDefault(a.reader, prompt, cur, a.out)
	if err != nil {
		return "", err
	}
	if editing && s == clearValue {
		return "", nil
	}
	return s, nil
}

func (a *App) find(id string) (models.Record, bool) {
	for _, r := range a.vault.Records() {
		if r.ID == id {
			return r, true
		}
	}
	return models.Record{}, false
}

func (a *App) printRecords(recs []models.Record) {
	if len(recs) == 0 {
		fmt.Fprintln(a.out, "No records.")
		if err := a.vault.LastError(); err != nil {
			fmt.Fprintf(a.out, "Last error: %v\n", err)
		}
		return
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPLATFORM\tUSERNAME\tCOMMENT\tFILE")
	for _, r := range recs {
		file := "-"
		if r.Attachment != nil {
			file = r.Attachment.FileName
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Platform, r.Username, truncate(r.Comment, maxCommentWidth), file)
	}
	_ = tw.Flush()
}

func truncate(s string, n int) string {
	r := []rune(strings.ReplaceAll(s, "\n", " "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}
