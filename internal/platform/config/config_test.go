package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type ConfigSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigSuite))
}

func (s *ConfigSuite) TestDefaults() {
	cfg, err := Load("")
	s.Require().NoError(err)
	s.Equal(":8080", cfg.Server.Addr)
	s.Equal(BackendMemory, cfg.Ledger.Backend)
	s.Equal(5*time.Second, cfg.Ledger.TxTimeout)
	s.Equal("landlocked.audit", cfg.Audit.Topic)
}

func (s *ConfigSuite) TestFileThenEnvPrecedence() {
	dir := s.T().TempDir()
	path := filepath.Join(dir, "landlocked.yaml")
	s.Require().NoError(os.WriteFile(path, []byte(`
server:
  addr: ":7000"
ledger:
  backend: leveldb
  data_dir: /var/lib/landlocked
  tx_timeout: 2s
  genesis:
    aa: 1000
`), 0o600))

	s.T().Setenv("LANDLOCKED_SERVER_ADDR", ":7100")

	cfg, err := Load(path)
	s.Require().NoError(err)
	s.Equal(":7100", cfg.Server.Addr, "environment wins over file")
	s.Equal(BackendLevelDB, cfg.Ledger.Backend)
	s.Equal("/var/lib/landlocked", cfg.Ledger.DataDir)
	s.Equal(2*time.Second, cfg.Ledger.TxTimeout)
	s.Equal(uint64(1000), cfg.Ledger.Genesis["aa"])
}

func (s *ConfigSuite) TestValidation() {
	s.Run("postgres backend needs dsn", func() {
		s.T().Setenv("LANDLOCKED_LEDGER_BACKEND", "postgres")
		_, err := Load("")
		s.Require().Error(err)
		s.Contains(err.Error(), "postgres.dsn")
	})
	s.Run("unknown backend", func() {
		s.T().Setenv("LANDLOCKED_LEDGER_BACKEND", "bolt")
		_, err := Load("")
		s.Require().Error(err)
	})
	s.Run("redis replay needs url", func() {
		s.T().Setenv("LANDLOCKED_LEDGER_BACKEND", "memory")
		s.T().Setenv("LANDLOCKED_REPLAY_BACKEND", "redis")
		_, err := Load("")
		s.Require().Error(err)
		s.Contains(err.Error(), "redis.url")
	})
	s.Run("replay window must cover transaction validity", func() {
		s.T().Setenv("LANDLOCKED_LEDGER_BACKEND", "memory")
		s.T().Setenv("LANDLOCKED_REPLAY_TTL", "1m")
		_, err := Load("")
		s.Require().Error(err)
		s.Contains(err.Error(), "replay.ttl")
	})
}

func (s *ConfigSuite) TestMissingFile() {
	_, err := Load(filepath.Join(s.T().TempDir(), "absent.yaml"))
	s.Error(err)
}

func (s *ConfigSuite) TestKafkaBrokersFromEnv() {
	s.T().Setenv("LANDLOCKED_AUDIT_SINK", "kafka")
	s.T().Setenv("LANDLOCKED_AUDIT_BROKERS", "kafka-1:9092, kafka-2:9092,kafka-1:9092")

	cfg, err := Load("")
	s.Require().NoError(err)
	s.Equal([]string{"kafka-1:9092", "kafka-2:9092"}, cfg.Audit.Brokers)
}
