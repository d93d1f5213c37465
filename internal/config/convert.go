package config

import (
	"encoding/json"
	"fmt"
	"net"
	"strconv"

	"github.com/goodnatureofminers/blockinsight7000-indexer/internal/indexer/bitcoin"
	"github.com/goodnatureofminers/blockinsight7000-indexer/internal/indexer/model"
)

// JobSpecs converts configured jobs into desired job rows. Disabled jobs are
// included; the snapshot records the enabled flag.
func (c *Config) JobSpecs() ([]model.JobSpec, error) {
	specs := make([]model.JobSpec, 0, len(c.Jobs))
	for _, job := range c.Jobs {
		snapshot, err := json.Marshal(job)
		if err != nil {
			return nil, fmt.Errorf("snapshot job %s: %w", job.JobID, err)
		}
		specs = append(specs, model.JobSpec{
			JobID:    job.JobID,
			Mode:     model.JobMode(job.Mode),
			Snapshot: snapshot,
		})
	}
	return specs, nil
}

// ClientConfig builds the node client settings.
func (r RPC) ClientConfig() bitcoin.ClientConfig {
	cfg := bitcoin.ClientConfig{
		URL:            r.URL,
		User:           r.Auth.Basic.Username,
		Password:       r.Auth.Basic.Password,
		ConnectTimeout: r.Timeouts.Connect(),
		RequestTimeout: r.Timeouts.Request(),
		MaxRPS:         r.MaxRPS,
	}
	if r.MTLS.active() {
		cfg.TLS = &bitcoin.TLSFiles{
			CAPath:   r.MTLS.CAPath,
			CertPath: r.MTLS.ClientCertPath,
			KeyPath:  r.MTLS.ClientKeyPath,
		}
	}
	return cfg
}

// Addr is the control API listen address.
func (s Server) Addr() string {
	return net.JoinHostPort(s.BindHost, strconv.Itoa(int(s.BindPort)))
}
