package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/filecoin-project/go-address"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/lendcore/lendcore/pkg/constants"
)

// Config is an in memory representation of the lendcore configuration file
type Config struct {
	Protocol  *ProtocolConfig  `toml:"protocol"`
	Actors    *ActorsConfig    `toml:"actors"`
	Datastore *DatastoreConfig `toml:"datastore"`
	Journal   *JournalConfig   `toml:"journal"`
	Metrics   *MetricsConfig   `toml:"metrics"`
	Wallet    *WalletConfig    `toml:"wallet"`
}

// ProtocolConfig holds the parameters that enter proposal hashes.
type ProtocolConfig struct {
	ChainID            uint64 `toml:"chainId"`
	SignatureCacheSize int    `toml:"signatureCacheSize"`
}

func newDefaultProtocolConfig() *ProtocolConfig {
	return &ProtocolConfig{
		ChainID:            constants.DefaultChainID,
		SignatureCacheSize: constants.SignatureCacheSize,
	}
}

// ActorsConfig holds the addresses granted capabilities when a repo is
// bootstrapped.
type ActorsConfig struct {
	HubOwner      string   `toml:"hubOwner"`
	LoanContracts []string `toml:"loanContracts"`
}

func newDefaultActorsConfig() *ActorsConfig {
	return &ActorsConfig{
		HubOwner:      "",
		LoanContracts: []string{},
	}
}

// HubOwnerAddress parses HubOwner.
func (ac *ActorsConfig) HubOwnerAddress() (address.Address, error) {
	if ac.HubOwner == "" {
		return address.Undef, errors.New("hub owner is not set")
	}
	return address.NewFromString(ac.HubOwner)
}

// LoanContractAddresses parses LoanContracts.
func (ac *ActorsConfig) LoanContractAddresses() ([]address.Address, error) {
	out := make([]address.Address, 0, len(ac.LoanContracts))
	for _, s := range ac.LoanContracts {
		a, err := address.NewFromString(s)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid loan contract %q", s)
		}
		out = append(out, a)
	}
	return out, nil
}

// DatastoreConfig holds all the configuration options for the datastore.
type DatastoreConfig struct {
	Type string `toml:"type"`
	Path string `toml:"path"`
}

func newDefaultDatastoreConfig() *DatastoreConfig {
	return &DatastoreConfig{
		Type: "badgerds",
		Path: "badger",
	}
}

// JournalConfig controls the event journal.
type JournalConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

func newDefaultJournalConfig() *JournalConfig {
	return &JournalConfig{
		Enabled: true,
		Path:    "journal.ndjson",
	}
}

// MetricsConfig controls the prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `toml:"enabled"`
	Address   string `toml:"address"`
	Namespace string `toml:"namespace"`
}

func newDefaultMetricsConfig() *MetricsConfig {
	return &MetricsConfig{
		Enabled:   false,
		Address:   "127.0.0.1:9400",
		Namespace: "lendcore",
	}
}

// WalletConfig holds the scrypt parameters used to encrypt stored keys.
type WalletConfig struct {
	ScryptN int `toml:"scryptN"`
	ScryptP int `toml:"scryptP"`
}

func newDefaultWalletConfig() *WalletConfig {
	return &WalletConfig{
		ScryptN: 1 << 18,
		ScryptP: 1,
	}
}

// TestWalletConfig returns cheap scrypt parameters for tests.
func TestWalletConfig() *WalletConfig {
	return &WalletConfig{
		ScryptN: 2,
		ScryptP: 1,
	}
}

// NewDefaultConfig returns a config object with all the fields filled out to
// their default values
func NewDefaultConfig() *Config {
	return &Config{
		Protocol:  newDefaultProtocolConfig(),
		Actors:    newDefaultActorsConfig(),
		Datastore: newDefaultDatastoreConfig(),
		Journal:   newDefaultJournalConfig(),
		Metrics:   newDefaultMetricsConfig(),
		Wallet:    newDefaultWalletConfig(),
	}
}

// Validate reports every invalid setting at once.
func (cfg *Config) Validate() error {
	var result *multierror.Error
	if cfg.Protocol.SignatureCacheSize < 0 {
		result = multierror.Append(result, errors.Errorf("protocol.signatureCacheSize must not be negative, got %d", cfg.Protocol.SignatureCacheSize))
	}
	if cfg.Actors.HubOwner != "" {
		if _, err := cfg.Actors.HubOwnerAddress(); err != nil {
			result = multierror.Append(result, errors.Wrap(err, "actors.hubOwner"))
		}
	}
	if _, err := cfg.Actors.LoanContractAddresses(); err != nil {
		result = multierror.Append(result, errors.Wrap(err, "actors.loanContracts"))
	}
	switch cfg.Datastore.Type {
	case "badgerds", "memds":
	default:
		result = multierror.Append(result, errors.Errorf("unknown datastore type %q", cfg.Datastore.Type))
	}
	if cfg.Journal.Enabled && cfg.Journal.Path == "" {
		result = multierror.Append(result, errors.New("journal.path is required when the journal is enabled"))
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Address == "" {
		result = multierror.Append(result, errors.New("metrics.address is required when metrics are enabled"))
	}
	if n := cfg.Wallet.ScryptN; n <= 1 || n&(n-1) != 0 {
		result = multierror.Append(result, errors.Errorf("wallet.scryptN must be a power of two greater than 1, got %d", n))
	}
	if cfg.Wallet.ScryptP < 1 {
		result = multierror.Append(result, errors.Errorf("wallet.scryptP must be positive, got %d", cfg.Wallet.ScryptP))
	}
	return result.ErrorOrNil()
}

// WriteFile writes the config to the given filepath.
func (cfg *Config) WriteFile(file string) error {
	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	if err := toml.NewEncoder(f).Encode(*cfg); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}

// ReadFile reads a config file from disk. Missing sections keep their
// defaults.
func ReadFile(file string) (*Config, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close() // nolint: errcheck

	cfg := NewDefaultConfig()
	if _, err := toml.DecodeReader(f, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// traverseConfig contains the shared traversal logic for getting and setting
// config values.  It uses reflection to find the sub-struct referenced by `key`
// and applies a processing function to the referenced struct
func (cfg *Config) traverseConfig(key string,
	f func(reflect.Value, string) (interface{}, error)) (interface{}, error) {
	v := reflect.Indirect(reflect.ValueOf(cfg))
	keyTags := strings.Split(key, ".")
OUTER:
	for j, keyTag := range keyTags {
		switch v.Type().Kind() {
		case reflect.Struct:
			for i := 0; i < v.NumField(); i++ {
				tomlTag := strings.Split(
					v.Type().Field(i).Tag.Get("toml"),
					",")[0]
				if tomlTag == keyTag {
					v = v.Field(i)
					if j == len(keyTags)-1 {
						return f(v, key)
					}
					v = reflect.Indirect(v) // only attempt one dereference
					continue OUTER
				}
			}
		case reflect.Array, reflect.Slice:
			i64, err := strconv.ParseUint(keyTag, 0, 0)
			if err != nil {
				return nil, fmt.Errorf("non-integer key into slice")
			}
			i := int(i64)
			if i > v.Len()-1 {
				return nil, fmt.Errorf("key into slice out of range")
			}
			v = v.Index(i)
			if j == len(keyTags)-1 {
				return f(v, key)
			}
			v = reflect.Indirect(v) // only attempt one dereference
			continue OUTER
		}

		return nil, fmt.Errorf("key: %s invalid for config", key)
	}
	// Cannot get here as len(strings.Split(s, sep)) >= 1 with non-empty sep
	return nil, fmt.Errorf("empty key is invalid")
}

// prependKey includes the TOML key in the tomlVal blob necessary for correct
// marshaling.  Ordinary tables require "[key]\n" prepended.  All others,
// including inline tables and arrays require "k = " prepended, where k is the
// last period separated substring of key.
func prependKey(tomlVal string, key string, fieldT reflect.Type) string {
	ks := strings.Split(key, ".")
	k := ks[len(ks)-1]
	fieldK := fieldT.Kind()
	if fieldK == reflect.Ptr {
		fieldK = fieldT.Elem().Kind() // only attempt one dereference
	}

	switch fieldK {
	case reflect.Struct:
		tomlVal = strings.TrimSpace(tomlVal)
		// inline table
		if strings.HasPrefix(tomlVal, "{") {
			return fmt.Sprintf("%s=%s", k, tomlVal)
		}
		return fmt.Sprintf("[%s]\n%s", k, tomlVal)
	default:
		return fmt.Sprintf("%s=%s", k, tomlVal)
	}
}

// fieldToSet calculates the reflector Value to set the config at the given key
// based on the user provided toml blob.
func fieldToSet(key string, tomlVal string, fieldT reflect.Type) (reflect.Value, error) {
	// set up a struct with this field for unmarshaling
	tomlValKey := prependKey(tomlVal, key, fieldT)
	ks := strings.Split(key, ".")
	k := ks[len(ks)-1]

	field := reflect.StructField{
		Name: "Field",
		Type: fieldT,
		Tag:  reflect.StructTag("toml:" + "\"" + k + "\""),
	}
	recvT := reflect.StructOf([]reflect.StructField{field})
	valToRecv := reflect.New(recvT)

	md, err := toml.Decode(tomlValKey, valToRecv.Interface())
	if err != nil {
		msg := fmt.Sprintf("input could not be marshaled to sub-config at: %s", key)
		return valToRecv, errors.Wrap(err, msg)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return valToRecv, errors.Errorf("unknown keys %v at: %s", undecoded, key)
	}
	return valToRecv.Elem().Field(0), nil
}

// Set sets the config sub-struct referenced by `key`, e.g. 'protocol.chainId'
// or 'datastore' to the toml key value pair encoded in tomlVal. The result
// must still validate.
func (cfg *Config) Set(key string, tomlVal string) (interface{}, error) {
	f := func(v reflect.Value, key string) (interface{}, error) {
		// dereference pointer types for marshaling
		setT := v.Type()
		var recvT reflect.Type
		if setT.Kind() == reflect.Ptr {
			recvT = setT.Elem()
		} else {
			recvT = setT
		}

		valToSet, err := fieldToSet(key, tomlVal, recvT)
		if err != nil {
			return nil, err
		}
		// add pointers back for setting
		if setT.Kind() == reflect.Ptr {
			valToSet = valToSet.Addr()
		}

		prev := reflect.New(setT).Elem()
		prev.Set(v)
		v.Set(valToSet)
		if err := cfg.Validate(); err != nil {
			v.Set(prev)
			return nil, err
		}

		return v.Interface(), nil
	}

	return cfg.traverseConfig(key, f)
}

// Get gets the config sub-struct referenced by `key`, e.g. 'protocol.chainId'
func (cfg *Config) Get(key string) (interface{}, error) {
	f := func(v reflect.Value, key string) (interface{}, error) {
		return v.Interface(), nil
	}

	return cfg.traverseConfig(key, f)
}
