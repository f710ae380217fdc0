// Package watch reports image files that appear or change in a directory.
//
// The Watcher waits until a file has been quiet for a settle delay before
// handing it over, so images that are still being copied are not analyzed
// half-written. Ready files are delivered in batches, sorted by path.
//
//	w, err := watch.New("./incoming", watch.WithSettleDelay(time.Second))
//	if err != nil {
//	    return err
//	}
//	err = w.Run(ctx, func(ctx context.Context, paths []string) {
//	    // analyze paths
//	})
package watch
