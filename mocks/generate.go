package mocks

//go:generate mockgen -destination=./mock_bar_feed.go -package=mocks github.com/rxtech-lab/argo-signal/internal/feed BarFeed
//go:generate mockgen -destination=./mock_dispatcher.go -package=mocks github.com/rxtech-lab/argo-signal/internal/dispatch Dispatcher,Broker
