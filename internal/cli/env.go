package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rhystmorgan/giftterm/internal/audit"
	"rhystmorgan/giftterm/internal/blockchain"
	"rhystmorgan/giftterm/internal/config"
	"rhystmorgan/giftterm/internal/contract"
	"rhystmorgan/giftterm/internal/fhe"
	"rhystmorgan/giftterm/internal/logging"
	"rhystmorgan/giftterm/internal/registry"
	"rhystmorgan/giftterm/internal/views"
	"rhystmorgan/giftterm/internal/wallet"
)

// environment is what every command shares: settings, the log, the
// keystore and, once dialed, the chain and gateway connections.
type environment struct {
	cfg      *config.Config
	logger   *zap.Logger
	keystore *wallet.Keystore
	journal  *audit.GiftAuditor

	mu      sync.Mutex
	chain   *blockchain.Client
	gateway *fhe.RPCClient
}

func newEnvironment(cfg *config.Config) (*environment, error) {
	logger, err := logging.New(cfg.LogFile(), cfg.Debug)
	if err != nil {
		return nil, err
	}

	keystore, err := wallet.NewKeystore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open keystore: %w", err)
	}

	journal, err := audit.NewGiftAuditor(cfg.AuditDir(), uuid.NewString())
	if err != nil {
		return nil, err
	}

	return &environment{
		cfg:      cfg,
		logger:   logger,
		keystore: keystore,
		journal:  journal,
	}, nil
}

// dial connects to the node and the FHE gateway on first use.
func (e *environment) dial(ctx context.Context) (*blockchain.Client, *fhe.RPCClient, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.chain == nil {
		chain, err := blockchain.Dial(ctx, e.cfg.BlockchainConfig(), e.logger)
		if err != nil {
			return nil, nil, err
		}
		e.chain = chain
	}
	if e.gateway == nil {
		gateway, err := fhe.Dial(ctx, e.cfg.FHEConfig(e.chain.ChainID()), e.logger)
		if err != nil {
			return nil, nil, err
		}
		e.gateway = gateway
	}
	return e.chain, e.gateway, nil
}

// registry binds the gift registry. With a nil account the service can
// only read; otherwise transactions are signed with the account's key after
// approver agrees.
func (e *environment) registry(ctx context.Context, account *wallet.Account, approver contract.Approver) (*registry.Service, error) {
	address, err := e.cfg.RequireContract()
	if err != nil {
		return nil, err
	}

	chain, gateway, err := e.dial(ctx)
	if err != nil {
		return nil, err
	}

	reader, err := contract.NewReader(address, chain.Backend(), chain)
	if err != nil {
		return nil, err
	}

	opts := registry.Options{
		Reader:  reader,
		FHE:     gateway,
		Cache:   registry.NewRecordCache(e.cfg.CacheTTL),
		Journal: e.journal,
		Logger:  e.logger,
	}
	if account != nil {
		writer, err := contract.NewWriter(address, chain.Backend(), account.PrivateKey, chain.ChainID(), approver, chain)
		if err != nil {
			return nil, err
		}
		opts.Writer = writer
	}

	return registry.NewService(opts), nil
}

func (e *environment) connector(approver contract.Approver) views.ConnectFunc {
	return func(ctx context.Context, account *wallet.Account) (*registry.Service, error) {
		return e.registry(ctx, account, approver)
	}
}

func (e *environment) Close() {
	e.mu.Lock()
	if e.gateway != nil {
		e.gateway.Close()
	}
	if e.chain != nil {
		e.chain.Close()
	}
	e.mu.Unlock()

	if err := e.journal.Close(); err != nil {
		e.logger.Warn("failed to close audit journal", zap.Error(err))
	}
	_ = e.logger.Sync()
}
