// Package ports defines the narrow interfaces the risk engine consumes.
// Adapters live in store/, notify/, lock/ and safeguard/.
package ports

//go:generate mockgen -source=stores.go -destination=mocks/stores_mock.go -package=mocks
//go:generate mockgen -source=effects.go -destination=mocks/effects_mock.go -package=mocks
