// Package mocks provides gomock implementations of the ingest collaborators.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
package mocks

//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=ingest_mock.go go-jobsearch-automation/internal/ingest JobStore,Matcher,Notifier
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=dedup_mock.go go-jobsearch-automation/internal/dedup Cache
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=scraper_mock.go go-jobsearch-automation/internal/scraper Source
