package discovery

import (
	"context"
	"fmt"

	consulapi "github.com/hashicorp/consul/api"
	"go.uber.org/zap"
)

// Registrar announces this instance to a service registry.
type Registrar interface {
	Register(ctx context.Context) error
	Deregister(ctx context.Context) error
}

type Options struct {
	ConsulAddr  string
	ServiceName string
	Address     string
	Port        int
}

type nopRegistrar struct{}

func (nopRegistrar) Register(context.Context) error   { return nil }
func (nopRegistrar) Deregister(context.Context) error { return nil }

type agent interface {
	ServiceRegisterOpts(service *consulapi.AgentServiceRegistration, opts consulapi.ServiceRegisterOpts) error
	ServiceDeregisterOpts(serviceID string, q *consulapi.QueryOptions) error
}

type consulRegistrar struct {
	agent  agent
	reg    *consulapi.AgentServiceRegistration
	logger *zap.Logger
}

// NewRegistrar registers with Consul when ConsulAddr is set; otherwise the
// returned Registrar does nothing.
func NewRegistrar(opts Options, instanceID string, logger *zap.Logger) (Registrar, error) {
	if opts.ConsulAddr == "" {
		return nopRegistrar{}, nil
	}
	cfg := consulapi.DefaultConfig()
	cfg.Address = opts.ConsulAddr
	client, err := consulapi.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &consulRegistrar{
		agent:  client.Agent(),
		reg:    registration(opts, instanceID),
		logger: logger,
	}, nil
}

func registration(opts Options, instanceID string) *consulapi.AgentServiceRegistration {
	host := opts.Address
	if host == "" {
		host = "127.0.0.1"
	}
	return &consulapi.AgentServiceRegistration{
		ID:      fmt.Sprintf("%s-%s", opts.ServiceName, instanceID),
		Name:    opts.ServiceName,
		Address: opts.Address,
		Port:    opts.Port,
		Tags:    []string{"http", "ws"},
		Check: &consulapi.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/healthz", host, opts.Port),
			Interval:                       "10s",
			Timeout:                        "2s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}
}

func (c *consulRegistrar) Register(ctx context.Context) error {
	if err := c.agent.ServiceRegisterOpts(c.reg, consulapi.ServiceRegisterOpts{}.WithContext(ctx)); err != nil {
		return err
	}
	c.logger.Info("registered with consul", zap.String("service_id", c.reg.ID))
	return nil
}

func (c *consulRegistrar) Deregister(ctx context.Context) error {
	q := (&consulapi.QueryOptions{}).WithContext(ctx)
	if err := c.agent.ServiceDeregisterOpts(c.reg.ID, q); err != nil {
		return err
	}
	c.logger.Info("deregistered from consul", zap.String("service_id", c.reg.ID))
	return nil
}
