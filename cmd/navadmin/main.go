package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"battlenav/internal/persistence/indexdb"
	persistlog "battlenav/internal/persistence/log"
	"battlenav/internal/persistence/snapshot"
	"battlenav/internal/sim/grid"
	"battlenav/internal/sim/tuning"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "units":
			unitsCmd(os.Args[2:])
			return
		case "turns":
			turnsCmd(os.Args[2:])
			return
		case "trace":
			traceCmd(os.Args[2:])
			return
		case "board":
			boardCmd(os.Args[2:])
			return
		case "runs":
			runsCmd(os.Args[2:])
			return
		}
	}
	runsCmd(os.Args[1:])
}

func defaultDBPath(dataDir, dbPath string) string {
	if p := strings.TrimSpace(dbPath); p != "" {
		return p
	}
	return filepath.Join(dataDir, "index", "runs.sqlite")
}

func openIndex(path string) *indexdb.SQLiteIndex {
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintln(os.Stderr, "index:", err)
		os.Exit(1)
	}
	idx, err := indexdb.OpenSQLite(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	return idx
}

func runsCmd(args []string) {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	limit := fs.Int("limit", 20, "result limit")
	_ = fs.Parse(args)

	idx := openIndex(defaultDBPath(*dataDir, *dbPath))
	defer idx.Close()

	runs, err := idx.Runs(context.Background(), *limit)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	for _, r := range runs {
		_ = enc.Encode(struct {
			RunID     string `json:"run_id"`
			Scenario  string `json:"scenario"`
			Seed      int64  `json:"seed"`
			Turns     int    `json:"turns"`
			Units     int    `json:"units"`
			Arrived   int    `json:"arrived"`
			StartedAt string `json:"started_at"`
			TracePath string `json:"trace_path"`
		}{r.RunID, r.Scenario, r.Seed, r.Turns, r.Units, r.Arrived, r.StartedAt.Format(time.RFC3339), r.TracePath})
	}
}

func unitsCmd(args []string) {
	fs := flag.NewFlagSet("units", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	_ = fs.Parse(args)
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: navadmin units [-db path] <run_id>")
		os.Exit(2)
	}

	idx := openIndex(defaultDBPath(*dataDir, *dbPath))
	defer idx.Close()

	units, err := idx.UnitResults(context.Background(), fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	if len(units) == 0 {
		fmt.Fprintln(os.Stderr, "no units for run", fs.Arg(0))
		os.Exit(2)
	}
	for _, u := range units {
		fmt.Printf("%-12s start=%v final=%v arrived=%d moves=%d blocked=%d\n",
			u.UnitID, u.Start, u.Final, u.ArrivedTurn, u.Moves, u.Blocked)
	}
}

func turnsCmd(args []string) {
	fs := flag.NewFlagSet("turns", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	unit := fs.String("unit", "", "unit id filter")
	limit := fs.Int("limit", 50, "result limit")
	_ = fs.Parse(args)
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: navadmin turns [-unit id] <run_id>")
		os.Exit(2)
	}

	db, err := sql.Open("sqlite", defaultDBPath(*dataDir, *dbPath))
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	q := `SELECT round,unit_id,order_kind,from_x,from_y,to_x,to_y,moved,COALESCE(err,'') FROM turns WHERE run_id=?`
	qargs := []any{fs.Arg(0)}
	if *unit != "" {
		q += ` AND unit_id=?`
		qargs = append(qargs, *unit)
	}
	q += ` ORDER BY round, unit_id LIMIT ?`
	qargs = append(qargs, *limit)

	rows, err := db.Query(q, qargs...)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			round, fx, fy, tx, ty, moved int
			unitID, kind, errText        string
		)
		if err := rows.Scan(&round, &unitID, &kind, &fx, &fy, &tx, &ty, &moved, &errText); err != nil {
			fmt.Fprintln(os.Stderr, "scan:", err)
			os.Exit(1)
		}
		fmt.Printf("%5d %-12s %-8s (%d,%d)->(%d,%d) moved=%v %s\n", round, unitID, kind, fx, fy, tx, ty, moved == 1, errText)
	}
	if err := rows.Err(); err != nil {
		fmt.Fprintln(os.Stderr, "rows:", err)
		os.Exit(1)
	}
}

func traceCmd(args []string) {
	fs := flag.NewFlagSet("trace", flag.ExitOnError)
	unit := fs.String("unit", "", "unit id filter")
	_ = fs.Parse(args)
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: navadmin trace [-unit id] <run_dir>")
		os.Exit(2)
	}
	recs, err := persistlog.ReadRunTrace(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "read trace:", err)
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	for _, r := range recs {
		if *unit != "" && r.Unit != *unit {
			continue
		}
		_ = enc.Encode(r)
	}
}

func boardCmd(args []string) {
	fs := flag.NewFlagSet("board", flag.ExitOnError)
	units := fs.Bool("units", true, "list unit state under the board")
	_ = fs.Parse(args)
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: navadmin board <run_dir|snapshot_file>")
		os.Exit(2)
	}
	path := fs.Arg(0)
	if st, err := os.Stat(path); err == nil && st.IsDir() {
		path = filepath.Join(path, "final.snap.zst")
	}
	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}
	w, err := grid.WorldFromSnapshot(snap, tuning.Defaults())
	if err != nil {
		fmt.Fprintln(os.Stderr, "rebuild board:", err)
		os.Exit(1)
	}
	fmt.Printf("scenario=%s round=%d seed=%d size=%dx%d\n", snap.Header.Scenario, snap.Header.Round, snap.Seed, snap.Width, snap.Height)
	fmt.Print(w.Render())
	if *units {
		for _, u := range w.Units() {
			fmt.Printf("  %-12s %-6s at=%v cooldown=%d paint=%d\n", u.ID, u.Team, u.Pos, u.Cooldown, u.Paint)
		}
	}
}
