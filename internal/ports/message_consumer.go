package ports

import "context"

// MessageConsumer — фоновый читатель очереди; Run блокируется до отмены контекста.
type MessageConsumer interface {
	Run(ctx context.Context) error
	Close() error
}
