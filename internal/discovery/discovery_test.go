package discovery

import (
	"context"
	"errors"
	"testing"

	consulapi "github.com/hashicorp/consul/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeAgent struct {
	registered   *consulapi.AgentServiceRegistration
	deregistered string
	err          error
}

func (f *fakeAgent) ServiceRegisterOpts(s *consulapi.AgentServiceRegistration, _ consulapi.ServiceRegisterOpts) error {
	if f.err != nil {
		return f.err
	}
	f.registered = s
	return nil
}

func (f *fakeAgent) ServiceDeregisterOpts(id string, _ *consulapi.QueryOptions) error {
	if f.err != nil {
		return f.err
	}
	f.deregistered = id
	return nil
}

func TestNoConsulAddrIsNop(t *testing.T) {
	r, err := NewRegistrar(Options{ServiceName: "business-nexus", Port: 5000}, "i1", zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.NoError(t, r.Register(context.Background()))
	assert.NoError(t, r.Deregister(context.Background()))
}

func TestRegistration(t *testing.T) {
	reg := registration(Options{ServiceName: "business-nexus", Address: "10.0.0.7", Port: 5000}, "i1")
	assert.Equal(t, "business-nexus-i1", reg.ID)
	assert.Equal(t, 5000, reg.Port)
	assert.Equal(t, "http://10.0.0.7:5000/healthz", reg.Check.HTTP)

	local := registration(Options{ServiceName: "business-nexus", Port: 8080}, "i2")
	assert.Equal(t, "http://127.0.0.1:8080/healthz", local.Check.HTTP)
}

func TestRegisterAndDeregister(t *testing.T) {
	a := &fakeAgent{}
	r := &consulRegistrar{agent: a, reg: registration(Options{ServiceName: "svc", Port: 1}, "x"), logger: zaptest.NewLogger(t)}

	require.NoError(t, r.Register(context.Background()))
	assert.Equal(t, "svc-x", a.registered.ID)
	require.NoError(t, r.Deregister(context.Background()))
	assert.Equal(t, "svc-x", a.deregistered)

	a.err = errors.New("agent unreachable")
	assert.Error(t, r.Register(context.Background()))
}
