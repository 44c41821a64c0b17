// Package backup implements the syncopy run: inspect previous backups on the
// disk, pack a new archive, upload it and clean up.
package backup

import (
	"fmt"
	"regexp"
	"time"

	"syncopy/pkg/core"
	"syncopy/pkg/disk"
)

const (
	// Prefix starts every backup file name.
	Prefix = "SYNCOPY_BACKUP"
	// DateLayout is the UTC timestamp embedded in names (dd_mm_yyyy_HH_MM).
	DateLayout = "02_01_2006_15_04"
	// DisplayLayout is used when reporting backup times.
	DisplayLayout = "02.01.2006 15:04"
)

// Backup is a previous backup found on the disk.
type Backup struct {
	Name      string
	CreatedAt time.Time
	DiskPath  string
}

// Name returns the archive file name for a backup taken at t.
func Name(suffix string, t time.Time, codec core.Codec) string {
	stamp := t.UTC().Format(DateLayout)
	if suffix == "" {
		return fmt.Sprintf("%s_%s%s", Prefix, stamp, codec.Extension())
	}
	return fmt.Sprintf("%s_%s_%s%s", Prefix, suffix, stamp, codec.Extension())
}

// Matcher returns a regexp accepting backup names for suffix. The timestamp
// is captured in the first group.
func Matcher(suffix string) *regexp.Regexp {
	seg := ""
	if suffix != "" {
		seg = regexp.QuoteMeta(suffix) + "_"
	}
	return regexp.MustCompile(`^` + Prefix + `_` + seg + `(\d{2}_\d{2}_\d{4}_\d{2}_\d{2})\.tar\.(?:gz|lz4)$`)
}

// ParseName extracts the creation time from a backup name.
func ParseName(suffix, name string) (time.Time, error) {
	return parseWith(Matcher(suffix), name)
}

func parseWith(re *regexp.Regexp, name string) (time.Time, error) {
	m := re.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, fmt.Errorf("%q is not a backup name", name)
	}
	t, err := time.ParseInLocation(DateLayout, m[1], time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("backup %q: %w", name, err)
	}
	return t, nil
}

// Filter keeps the items that are backups for suffix. Names with an
// impossible timestamp are skipped.
func Filter(items []disk.Item, suffix string) []Backup {
	re := Matcher(suffix)

	var out []Backup
	for _, it := range items {
		t, err := parseWith(re, it.Name)
		if err != nil {
			continue
		}
		out = append(out, Backup{Name: it.Name, CreatedAt: t, DiskPath: it.Path})
	}
	return out
}

// Latest returns the most recent backup. Ties keep the first one listed.
func Latest(backups []Backup) (Backup, bool) {
	if len(backups) == 0 {
		return Backup{}, false
	}
	latest := backups[0]
	for _, b := range backups[1:] {
		if b.CreatedAt.After(latest.CreatedAt) {
			latest = b
		}
	}
	return latest, true
}

// Delta renders the time between then and now in its largest whole unit:
// minutes below an hour, hours below a day, days below a week, else weeks.
func Delta(now, then time.Time) string {
	d := now.Sub(then)
	if d < 0 {
		d = 0
	}

	switch {
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d/time.Hour))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd", int(d/(24*time.Hour)))
	default:
		return fmt.Sprintf("%dw", int(d/(7*24*time.Hour)))
	}
}
