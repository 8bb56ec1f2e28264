package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/twitter/heft/scheduler/domain"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestFromEnv(t *testing.T) {
	c, err := FromEnv(lookupFrom(map[string]string{
		"VM1_IP":       "10.0.0.1",
		"VM1_CORES":    "1",
		"VM3_IP":       "10.0.0.3",
		"VM3_CORES":    "4",
		"VM3_PORT":     "6000",
		"VM3_CAPACITY": "2",
		"VM_PORT":      "5050",
		"COMM_COST":    "2.5",
		"TASK_TIMEOUT": "5",
		"COST_UNIT":    "10us",
	}))
	assert.Nil(t, err)
	assert.Equal(t, []domain.Processor{
		{ID: 1, Cores: 1, Capacity: 1, Endpoint: domain.Endpoint{Host: "10.0.0.1", Port: 5050}},
		{ID: 3, Cores: 4, Capacity: 2, Endpoint: domain.Endpoint{Host: "10.0.0.3", Port: 6000}},
	}, c.Processors)
	assert.Equal(t, 2.5, c.CommCost)
	assert.Equal(t, 10000.0, c.CostScale)
	assert.Equal(t, 5*time.Second, c.TaskTimeout)
	assert.Equal(t, 10*time.Microsecond, c.CostUnit)

	m, err := c.Model()
	assert.Nil(t, err)
	assert.Equal(t, 2.5, m.CommunicationCost(1, 3))
}

func TestFromEnvNoProcessors(t *testing.T) {
	_, err := FromEnv(lookupFrom(map[string]string{"VM_PORT": "5000"}))
	if assert.Error(t, err) {
		assert.True(t, domain.IsConfigurationError(err))
		assert.Contains(t, err.Error(), "no processors configured")
	}
}

func TestFromEnvBadValues(t *testing.T) {
	for _, env := range []map[string]string{
		{"VM1_IP": "a", "VM1_CORES": "many"},
		{"VM1_IP": "a", "VM1_CORES": "0"},
		{"VM1_IP": "a", "COMM_COST": "-1"},
		{"VM1_IP": "a", "COST_UNIT": "soon"},
	} {
		_, err := FromEnv(lookupFrom(env))
		assert.True(t, domain.IsConfigurationError(err), "%v: %v", env, err)
	}
}

func TestFromJSON(t *testing.T) {
	c, err := FromJSON([]byte(`{
		"Nodes": [{"Host": "10.0.0.1"}, {"ID": 7, "Host": "10.0.0.2", "Port": 6001, "Cores": 4, "Capacity": 3}],
		"CommCost": 0,
		"CommOverrides": [{"From": 1, "To": 7, "Cost": 9}],
		"TaskTimeout": "2s",
		"RateLimit": 10
	}`))
	assert.Nil(t, err)
	assert.Equal(t, []domain.Processor{
		{ID: 1, Cores: 1, Capacity: 1, Endpoint: domain.Endpoint{Host: "10.0.0.1", Port: DefaultPort}},
		{ID: 7, Cores: 4, Capacity: 3, Endpoint: domain.Endpoint{Host: "10.0.0.2", Port: 6001}},
	}, c.Processors)
	assert.Equal(t, 2*time.Second, c.TaskTimeout)
	assert.Equal(t, DefaultCostUnit, c.CostUnit)
	assert.Equal(t, 10.0, c.DispatcherConfig().RateLimit)

	m, err := c.Model()
	assert.Nil(t, err)
	assert.Equal(t, 9.0, m.CommunicationCost(1, 7))
	assert.Equal(t, 0.0, m.CommunicationCost(7, 1))
}

func TestFromJSONInvalid(t *testing.T) {
	_, err := FromJSON([]byte(`{"Nodes": `))
	assert.True(t, domain.IsConfigurationError(err))

	_, err = FromJSON([]byte(`{"Nodes": []}`))
	assert.True(t, domain.IsConfigurationError(err))
}

func TestLoadLayersEnvFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "config")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	envFile := filepath.Join(dir, ".env")
	contents := "VM61_IP=192.168.1.61\nVM61_CORES=2\n"
	if err := ioutil.WriteFile(envFile, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	// the process environment wins over the file
	os.Setenv("VM61_CORES", "8")
	defer os.Unsetenv("VM61_CORES")

	c, err := Load("", envFile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var found *domain.Processor
	for i := range c.Processors {
		if c.Processors[i].ID == 61 {
			found = &c.Processors[i]
		}
	}
	if assert.NotNil(t, found) {
		assert.Equal(t, "192.168.1.61", found.Endpoint.Host)
		assert.Equal(t, 8, found.Cores)
	}

	jsonFile := filepath.Join(dir, "run.json")
	ioutil.WriteFile(jsonFile, []byte(`{"Nodes": [{"Host": "h"}]}`), 0644)
	c, err = Load(jsonFile, envFile)
	assert.Nil(t, err)
	assert.Len(t, c.Processors, 1)

	_, err = Load(filepath.Join(dir, "missing.json"), "")
	assert.True(t, domain.IsConfigurationError(err))
}

func TestSimulated(t *testing.T) {
	c := Simulated(3)
	assert.Nil(t, c.Validate())
	assert.Equal(t, []int{1, 2, 4}, []int{c.Processors[0].Cores, c.Processors[1].Cores, c.Processors[2].Cores})
}
