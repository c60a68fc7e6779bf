// Package preflight runs the checks behind 'docrag doctor': whether the
// documents, vector store, embedder and answer model are usable before a
// build or a query.
//
//	checker := preflight.New(preflight.Target{...})
//	results := checker.RunAll(ctx)
//	if preflight.HasCriticalFailures(results) {
//	    // refuse to continue
//	}
package preflight
