// Package tally aggregates block counts across region files.
//
// A Scanner opens region files on a pool of workers. Every worker decodes
// the chunks of one file into a private Table, and finished tables are
// merged key by key. Merging is a plain sum, so the totals are the same for
// any number of workers; merging in input order also keeps the discovery
// order of identifiers stable.
//
//	s, err := tally.NewScanner(tally.WithWorkers(8))
//	if err != nil {
//	    return err
//	}
//	report, err := s.Scan(ctx, paths)
//	if err != nil {
//	    return err
//	}
//	for _, e := range tally.Top(report.Table, tally.ReduceOptions{
//	    Limit:  10,
//	    Sort:   true,
//	    Ignore: tally.NewIgnoreSet("air", "cave_air"),
//	}) {
//	    fmt.Println(e.ID, e.Count)
//	}
//
// Damaged files and chunks never abort a scan. They are listed in
// Report.Failures and counted in Report.Stats, apart from chunk slots that
// are simply empty.
package tally
