// Package pagination drains one partition of the records source page by page.
//
// The source signals exhaustion with a short page: callers keep requesting
// while a page holds exactly `limit` results. This package implements that
// contract sequentially, one page in flight at a time:
//
//	fetcher := pagination.NewFetcher(sourceClient, pagination.DefaultConfig())
//	records := fetcher.FetchPartition(ctx, "75")
//
// The fetcher:
//   - Starts at offset 0 and advances by the page size
//   - Validates every page and keeps only records with coordinates
//   - Stops on an empty page or a page shorter than the page size
//   - Abandons the partition on the first error and returns what it has
package pagination
