package vault

import (
	"fmt"

	"github.com/hashicorp/vault/api"
)

// SecretManager pulls deployment secrets from Vault. Only used when
// VAULT_ADDR/VAULT_TOKEN are set; otherwise config falls back to env vars.
type SecretManager struct {
	client *api.Client
}

func NewSecretManager(address, token string) (*SecretManager, error) {
	config := api.DefaultConfig()
	config.Address = address

	client, err := api.NewClient(config)
	if err != nil {
		return nil, err
	}

	client.SetToken(token)

	return &SecretManager{client: client}, nil
}

func (sm *SecretManager) GetDatabaseURL() (string, error) {
	secret, err := sm.client.Logical().Read("secret/data/database")
	if err != nil {
		return "", err
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("vault: no database secret found")
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("vault: unexpected secret layout")
	}
	url, ok := data["connection_string"].(string)
	if !ok {
		return "", fmt.Errorf("vault: connection_string missing")
	}
	return url, nil
}

func (sm *SecretManager) GetJWTSecret() (string, error) {
	secret, err := sm.client.Logical().Read("secret/data/jwt")
	if err != nil {
		return "", err
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("vault: no jwt secret found")
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("vault: unexpected secret layout")
	}
	key, ok := data["signing_key"].(string)
	if !ok {
		return "", fmt.Errorf("vault: signing_key missing")
	}
	return key, nil
}
