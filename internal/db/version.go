package db

import (
	"io/fs"
	"strconv"
	"strings"

	"github.com/persistorai/aptaudit/internal/db/migrations"
)

// SchemaVersion returns the highest version among the embedded migrations,
// taken from the numeric file name prefix (003_audits.sql → 3).
func SchemaVersion() int {
	return maxVersion(migrations.FS)
}

func maxVersion(fsys fs.FS) int {
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return 0
	}

	highest := 0

	for _, name := range names {
		prefix, _, ok := strings.Cut(name, "_")
		if !ok {
			continue
		}

		if v, err := strconv.Atoi(prefix); err == nil && v > highest {
			highest = v
		}
	}

	return highest
}
