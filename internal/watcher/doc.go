// Package watcher keeps the indexes in step with the documents directory.
//
// fsnotify is used where available, with polling as a fallback for
// filesystems that do not deliver events (network mounts, some container
// volumes). Bursts of events are debounced into one batch and each batch
// triggers a single rebuild:
//
//	err := watcher.Watch(ctx, docsDir, engine, watcher.Options{
//	    Debounce: 500 * time.Millisecond,
//	    Accept:   source.Accepts,
//	})
package watcher
