package plaid

import (
	"log"

	"github.com/plaid/plaid-go/v41/plaid"
)

var environments = map[string]plaid.Environment{
	"sandbox":    plaid.Sandbox,
	"production": plaid.Production,
}

func NewPlaidClient(clientID, secret, env string) *plaid.APIClient {
	environment, ok := environments[env]
	if !ok {
		log.Fatalf("Invalid Plaid environment: %s", env)
	}

	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", clientID)
	configuration.AddDefaultHeader("PLAID-SECRET", secret)
	configuration.UseEnvironment(environment)

	return plaid.NewAPIClient(configuration)
}
