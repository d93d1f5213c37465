package config

import (
	"fmt"
	"net/url"
	"os"

	"github.com/btcsuite/btcd/chaincfg"
)

var networks = map[string]*chaincfg.Params{
	"mainnet": &chaincfg.MainNetParams,
	"testnet": &chaincfg.TestNet3Params,
	"signet":  &chaincfg.SigNetParams,
	"regtest": &chaincfg.RegressionNetParams,
}

const (
	modeAllAddresses = "all_addresses"
	modeAddressList  = "address_list"
)

// Validate checks every rule; the first violation is returned.
func (c *Config) Validate() error {
	if err := readableFile("server.tls.cert_path", c.Server.TLS.CertPath); err != nil {
		return err
	}
	if err := readableFile("server.tls.key_path", c.Server.TLS.KeyPath); err != nil {
		return err
	}
	return c.ValidateIndexing()
}

// ValidateIndexing checks the rpc, indexer and jobs sections only.
func (c *Config) ValidateIndexing() error {
	if err := c.RPC.validate(); err != nil {
		return err
	}
	if err := c.Indexer.validate(); err != nil {
		return err
	}
	return validateJobs(c.Jobs)
}

func (r RPC) validate() error {
	u, err := url.Parse(r.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return validationErrorf("rpc.url MUST be an http(s) url: %q", r.URL)
	}
	if r.MTLS.active() {
		if err := readableFile("rpc.mtls.ca_path", r.MTLS.CAPath); err != nil {
			return err
		}
		if err := readableFile("rpc.mtls.client_cert_path", r.MTLS.ClientCertPath); err != nil {
			return err
		}
		if err := readableFile("rpc.mtls.client_key_path", r.MTLS.ClientKeyPath); err != nil {
			return err
		}
	}
	if r.Timeouts.ConnectMS < 0 || r.Timeouts.RequestMS < 0 {
		return validationErrorf("rpc.timeouts MUST be >= 0")
	}
	if r.MaxRPS < 0 {
		return validationErrorf("rpc.max_rps MUST be >= 0")
	}
	return nil
}

func (i Indexer) validate() error {
	if i.ReorgDepth < 0 {
		return validationErrorf("indexer.reorg_depth MUST be >= 0")
	}
	if _, ok := networks[i.Network]; !ok {
		return validationErrorf("indexer.network MUST be one of: mainnet|testnet|signet|regtest")
	}
	if i.Concurrency.RPCParallelism < 0 || i.Concurrency.DBWriterParallelism < 0 || i.Concurrency.MaxJobs < 0 {
		return validationErrorf("indexer.concurrency values MUST be >= 0")
	}
	return nil
}

func validateJobs(jobs []Job) error {
	seen := make(map[string]struct{}, len(jobs))
	for _, job := range jobs {
		if job.JobID == "" {
			return validationErrorf("jobs[*].job_id MUST be non-empty")
		}
		if _, dup := seen[job.JobID]; dup {
			return validationErrorf("jobs[*].job_id MUST be unique: %s", job.JobID)
		}
		seen[job.JobID] = struct{}{}

		switch job.Mode {
		case modeAllAddresses:
		case modeAddressList:
			if len(job.Addresses) == 0 {
				return validationErrorf("jobs[%s].addresses MUST be non-empty for address_list mode", job.JobID)
			}
		default:
			return validationErrorf("jobs[*].mode has unsupported value: %s", job.Mode)
		}
	}
	return nil
}

func readableFile(field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return validationErrorf("%s: file '%s' MUST exist and be readable: %v", field, path, err)
	}
	return f.Close()
}

// ChainParams returns the btcd parameters of the configured network.
func (i Indexer) ChainParams() (*chaincfg.Params, error) {
	params, ok := networks[i.Network]
	if !ok {
		return nil, fmt.Errorf("unknown network %q", i.Network)
	}
	return params, nil
}
