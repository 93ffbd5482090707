package consul

import (
	"fmt"
	"os"
	"strconv"

	consulapi "github.com/hashicorp/consul/api"
)

// NewClient connects to the consul agent addressed by CONSUL_HTTP_ADDR,
// falling back to the library default.
func NewClient() (*consulapi.Client, error) {
	config := consulapi.DefaultConfig()
	if addr := os.Getenv("CONSUL_HTTP_ADDR"); addr != "" {
		config.Address = addr
	}
	client, err := consulapi.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("creating consul client: %w", err)
	}
	return client, nil
}

// RegisterService registers this instance with consul so peers can discover
// it. Returns the registration id used for deregistration on shutdown.
func RegisterService(client *consulapi.Client, serviceName, address string, port int) (string, error) {
	registrationId := fmt.Sprintf("%s-%s-%d", serviceName, address, port)
	registration := &consulapi.AgentServiceRegistration{
		ID:      registrationId,
		Name:    serviceName,
		Address: address,
		Port:    port,
		Check: &consulapi.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/ping", address, port),
			Interval:                       "10s",
			Timeout:                        "2s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}
	if err := client.Agent().ServiceRegister(registration); err != nil {
		return "", fmt.Errorf("registering service with consul: %w", err)
	}
	return registrationId, nil
}

// DeregisterService removes the registration created by RegisterService.
func DeregisterService(client *consulapi.Client, registrationId string) error {
	if err := client.Agent().ServiceDeregister(registrationId); err != nil {
		return fmt.Errorf("deregistering service from consul: %w", err)
	}
	return nil
}

// GetServiceAddress resolves a healthy instance of the named service.
func GetServiceAddress(client *consulapi.Client, serviceName string) (string, int, error) {
	services, _, err := client.Health().Service(serviceName, "", true, nil)
	if err != nil {
		return "", 0, fmt.Errorf("querying consul for %s: %w", serviceName, err)
	}
	if len(services) == 0 {
		return "", 0, fmt.Errorf("no healthy instances of %s", serviceName)
	}
	svc := services[0].Service
	address := svc.Address
	if address == "" {
		address = services[0].Node.Address
	}
	return address, svc.Port, nil
}

// ServicePort parses the SERVICE_PORT env var used for registration.
func ServicePort() (int, error) {
	port := os.Getenv("SERVICE_PORT")
	if port == "" {
		return 0, fmt.Errorf("SERVICE_PORT is not set")
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return 0, fmt.Errorf("invalid SERVICE_PORT %q: %w", port, err)
	}
	return p, nil
}
