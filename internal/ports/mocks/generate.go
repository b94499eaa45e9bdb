//go:generate mockgen -source=../order_repository.go  -destination=./mock_order_repository.go  -package=mocks
//go:generate mockgen -source=../user_repository.go   -destination=./mock_user_repository.go   -package=mocks
//go:generate mockgen -source=../order_cache.go       -destination=./mock_order_cache.go       -package=mocks
//go:generate mockgen -source=../event_publisher.go   -destination=./mock_event_publisher.go   -package=mocks
//go:generate mockgen -source=../token_issuer.go      -destination=./mock_token_issuer.go      -package=mocks
//go:generate mockgen -source=../validator.go         -destination=./mock_validator.go         -package=mocks
//go:generate mockgen -source=../logger.go            -destination=./mock_logger.go            -package=mocks
//go:generate mockgen -source=../message_consumer.go  -destination=./mock_message_consumer.go  -package=mocks
//go:generate mockgen -source=../order_service.go     -destination=./mock_order_service.go     -package=mocks
//go:generate mockgen -source=../auth_service.go      -destination=./mock_auth_service.go      -package=mocks
//go:generate mockgen -source=../rate_limiter.go      -destination=./mock_rate_limiter.go      -package=mocks

package mocks
