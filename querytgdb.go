// `querytgdb` -- query a transcription-factor/target-gene regulation database
//
// Run `querytgdb help` for brief help.

package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"querytgdb/common"
	"querytgdb/db"
	"querytgdb/engine"
	"querytgdb/frame"
	"querytgdb/query"
	"querytgdb/status"
)

// v0.1.0 - initial version

const QuerytgdbVersion = "0.1.0"

func main() {
	err := querytgdb()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func querytgdb() error {
	out := flag.CommandLine.Output()

	if len(os.Args) < 2 {
		fmt.Fprintf(out, "Required operation missing, try `querytgdb help`\n")
		os.Exit(2)
	}

	verb := os.Args[1]
	switch verb {
	case "help", "-h":
		fmt.Fprintf(out, "Usage: %s command [options]\n", os.Args[0])
		fmt.Fprintf(out, "Commands:\n")
		fmt.Fprintf(out, "  query    - evaluate a query and print the result table\n")
		fmt.Fprintf(out, "  expand   - evaluate a query, printing descriptive column labels\n")
		fmt.Fprintf(out, "  validate - check query syntax without evaluating it\n")
		fmt.Fprintf(out, "  version  - print information about the program\n")
		fmt.Fprintf(out, "  help     - print this message\n")
		fmt.Fprintf(out, "Each command accepts -h to further explain options.\n")
		os.Exit(0)
	case "version":
		fmt.Printf("querytgdb version(%s)\n", QuerytgdbVersion)
		os.Exit(0)
	case "validate":
		return validateCommand(os.Args[2:])
	case "query", "expand":
		return queryCommand(verb, os.Args[2:])
	default:
		fmt.Fprintf(out, "Unknown operation `%s`, try `querytgdb help`\n", verb)
		os.Exit(2)
	}
	return nil
}

func validateCommand(args []string) error {
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	queryFlag := fs.String("query", "", "Query expression to check (alternatively as rest arguments)")
	fs.Parse(args)
	text := queryText(*queryFlag, fs.Args())
	if text == "" {
		return fmt.Errorf("Required -query argument missing")
	}
	if err := query.Validate(text); err != nil {
		return err
	}
	fmt.Println("OK")
	return nil
}

type queryArgs struct {
	queryText  string
	database   string
	edges      string
	tfList     string
	targetList string
	userList   string
	sizeLimit  string
	metadata   bool
	stats      bool
	verbose    bool
}

func queryCommand(verb string, args []string) error {
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	var a queryArgs
	fs.StringVar(&a.queryText, "query", "", "Query expression (alternatively as rest arguments)")
	fs.StringVar(&a.database, "database", "", "Postgres connection `URI` of the regulation store")
	fs.StringVar(&a.edges, "edges", "", "Comma-separated edge-type `names` to annotate targets with")
	fs.StringVar(&a.tfList, "tf-list", "", "`Filename` of TFs to restrict the query to, one per line")
	fs.StringVar(&a.targetList, "target-list", "", "`Filename` of target genes to restrict the query to, one per line")
	fs.StringVar(&a.userList, "user-list", "", "`Filename` of gene lists, lines of `gene list-name...`")
	fs.StringVar(&a.sizeLimit, "size-limit", "", "Fail queries whose unfiltered result exceeds `n` cells")
	fs.BoolVar(&a.metadata, "metadata", false, "Also print the analysis metadata table")
	fs.BoolVar(&a.stats, "stats", false, "Also print per-column-group edge totals")
	fs.BoolVar(&a.verbose, "v", false, "Verbose information")
	fs.Parse(args)

	common.ApplyDefault(&a.database, common.DataSourceDatabase)
	common.ApplyDefault(&a.edges, common.DataSourceEdges)
	common.ApplyDefault(&a.sizeLimit, common.DataSourceSizeLimit)

	if a.verbose {
		common.Log.LowerLevelTo(status.LogLevelInfo)
	}

	text := queryText(a.queryText, fs.Args())
	if text == "" {
		return fmt.Errorf("Required -query argument missing")
	}
	if a.database == "" {
		return fmt.Errorf("Required -database argument missing")
	}

	sizeLimit := 0
	if a.sizeLimit != "" {
		var err error
		sizeLimit, err = strconv.Atoi(a.sizeLimit)
		if err != nil || sizeLimit < 0 {
			return fmt.Errorf("Invalid -size-limit value %q", a.sizeLimit)
		}
	}

	tfAllowList, err := readGeneList(a.tfList)
	if err != nil {
		return err
	}
	targetAllowList, err := readGeneList(a.targetList)
	if err != nil {
		return err
	}
	userLists, err := readUserLists(a.userList)
	if err != nil {
		return err
	}

	source, err := db.OpenDatabaseURI(a.database)
	if err != nil {
		return err
	}

	eng := engine.New(source, engine.StartAnnotationCache(source))
	ctx := context.Background()

	result, metadata, stats, err := eng.Query(ctx, engine.Request{
		Query:           text,
		EdgeTypes:       splitTrimmed(a.edges),
		TFAllowList:     tfAllowList,
		TargetAllowList: targetAllowList,
		UserLists:       userLists,
		SizeLimit:       sizeLimit,
	})
	if err != nil {
		return err
	}

	f := result.Frame
	if verb == "expand" {
		f, err = eng.ExpandAnalysisIds(ctx, f)
		if err != nil {
			return err
		}
	}

	w := csv.NewWriter(os.Stdout)
	if err := writeResult(w, f, result); err != nil {
		return err
	}
	if a.metadata {
		if err := writeMetadata(w, metadata); err != nil {
			return err
		}
	}
	if a.stats {
		if err := writeStats(w, stats); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func queryText(flagValue string, rest []string) string {
	if flagValue != "" {
		return flagValue
	}
	return strings.TrimSpace(strings.Join(rest, " "))
}

func splitTrimmed(s string) []string {
	var result []string
	for _, x := range strings.Split(s, ",") {
		if x = strings.TrimSpace(x); x != "" {
			result = append(result, x)
		}
	}
	return result
}

// readGeneList reads one gene per line, '#' starts a comment.
func readGeneList(filename string) ([]string, error) {
	if filename == "" {
		return nil, nil
	}
	input, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer input.Close()
	var genes []string
	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		if line = strings.TrimSpace(line); line != "" {
			genes = append(genes, line)
		}
	}
	return genes, scanner.Err()
}

// readUserLists reads lines of a gene followed by the names of the lists it belongs to.  A gene
// appearing on several lines accumulates list names.
func readUserLists(filename string) (engine.UserLists, error) {
	if filename == "" {
		return nil, nil
	}
	input, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer input.Close()
	membership := make(map[string]map[string]bool)
	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		gene := fields[0]
		if membership[gene] == nil {
			membership[gene] = make(map[string]bool)
		}
		if len(fields) == 1 {
			membership[gene]["user_list"] = true
		}
		for _, name := range fields[1:] {
			membership[gene][name] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	lists := make(engine.UserLists, len(membership))
	for gene, names := range membership {
		sorted := make([]string, 0, len(names))
		for n := range names {
			sorted = append(sorted, n)
		}
		sort.Strings(sorted)
		lists[gene] = engine.UserListEntry{Lists: strings.Join(sorted, ","), Count: len(sorted)}
	}
	return lists, nil
}

func writeResult(w *csv.Writer, f *frame.Frame, result *engine.Result) error {
	cols := f.Columns()
	withLists := result.UserLists != nil

	header1 := []string{"", "TF"}
	header2 := []string{"", "Analysis"}
	header3 := []string{"Gene", "Attribute"}
	for _, c := range cols {
		header1 = append(header1, c.TF)
		header2 = append(header2, c.Analysis)
		header3 = append(header3, c.Attr)
	}
	extras := []string{"TF Count", "Full Name", "Family", "Type", "Name"}
	if withLists {
		extras = append(extras, "User List", "User List Count")
	}
	for _, x := range extras {
		header1 = append(header1, "")
		header2 = append(header2, "")
		header3 = append(header3, x)
	}
	for _, h := range [][]string{header1, header2, header3} {
		if err := w.Write(h); err != nil {
			return err
		}
	}

	for i, r := range f.Rows() {
		record := []string{r, strconv.Itoa(i + 1)}
		for _, c := range cols {
			record = append(record, cellString(f, r, c))
		}
		info := result.Genes[r]
		record = append(record, strconv.Itoa(result.TFCount[r]),
			info.FullName, info.Family, info.Type, info.Name)
		if withLists {
			entry := result.UserLists[r]
			record = append(record, entry.Lists, strconv.Itoa(entry.Count))
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func cellString(f *frame.Frame, r string, c frame.ColKey) string {
	v, found := f.Get(r, c)
	if !found {
		return ""
	}
	if v.IsNum {
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	}
	return v.Str
}

func writeMetadata(w *csv.Writer, metadata *engine.Metadata) error {
	if err := w.Write(nil); err != nil {
		return err
	}
	header := []string{"Metadata"}
	for _, id := range metadata.Analyses {
		header = append(header, strconv.Itoa(id))
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, key := range metadata.Keys {
		record := []string{key}
		for _, id := range metadata.Analyses {
			record = append(record, metadata.Values[id][key])
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func writeStats(w *csv.Writer, stats *engine.Stats) error {
	if err := w.Write(nil); err != nil {
		return err
	}
	groups := make([]frame.Group, 0, len(stats.GroupTotals))
	for g := range stats.GroupTotals {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].TF != groups[j].TF {
			return groups[i].TF < groups[j].TF
		}
		return groups[i].Analysis < groups[j].Analysis
	})
	if err := w.Write([]string{"TF", "Analysis", "Edges"}); err != nil {
		return err
	}
	for _, g := range groups {
		if err := w.Write([]string{g.TF, g.Analysis, strconv.Itoa(stats.GroupTotals[g])}); err != nil {
			return err
		}
	}
	if err := w.Write([]string{"Total", "", strconv.Itoa(stats.TotalEdges)}); err != nil {
		return err
	}
	return nil
}
