package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"landlocked/internal/ledger"
	"landlocked/internal/ledger/store"
	"landlocked/internal/platform/metrics"
	dErrors "landlocked/pkg/domain-errors"
	"landlocked/pkg/platform/sentinel"
	"landlocked/pkg/requestcontext"
)

const testKind ledger.Kind = "note"

type note struct {
	Text string `cbor:"1,keyasint"`
}

type LedgerSuite struct {
	suite.Suite
	kv      *store.TMStore
	ledger  *ledger.Ledger
	metrics *metrics.Metrics
	ctx     context.Context
	payer   ledger.Address
	params  ledger.Params
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	s.kv = store.NewMemDB()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.params = ledger.Params{
		ProgramID:      ledger.ProgramIDFromName("test"),
		BaseRecordCost: 100,
		CostPerByte:    1,
	}
	var err error
	s.ledger, err = ledger.Open(s.ctx, s.kv, s.params, ledger.WithMetrics(s.metrics))
	s.Require().NoError(err)

	s.payer = ledger.Address{0xAA}
	_, err = s.ledger.Genesis(s.ctx, map[ledger.Address]uint64{s.payer: 10_000})
	s.Require().NoError(err)
}

func (s *LedgerSuite) create(addr ledger.Address, text string) error {
	_, err := s.ledger.Execute(s.ctx, func(tx *ledger.Tx) error {
		return tx.Create(s.payer, addr, testKind, note{Text: text})
	})
	return err
}

func (s *LedgerSuite) TestGenesis() {
	s.Run("credits allocation once", func() {
		bal, err := s.ledger.Balance(s.ctx, s.payer)
		s.Require().NoError(err)
		s.Equal(uint64(10_000), bal)
		s.Equal(uint64(1), s.ledger.Head().Height)

		commit, err := s.ledger.Genesis(s.ctx, map[ledger.Address]uint64{s.payer: 5})
		s.Require().NoError(err)
		s.Nil(commit)
		bal, _ = s.ledger.Balance(s.ctx, s.payer)
		s.Equal(uint64(10_000), bal)
	})
}

func (s *LedgerSuite) TestCreateChargesStorage() {
	addr := s.ledger.ProgramID()
	addr = ledger.Derive(addr, []byte("note"), []byte("1"))

	s.Require().NoError(s.create(addr, "hello"))

	acct, err := s.ledger.Account(s.ctx, addr)
	s.Require().NoError(err)
	raw, _ := ledger.Marshal(note{Text: "hello"})
	cost := s.params.StorageCost(len(raw))
	s.Equal(cost, acct.Lamports)

	bal, _ := s.ledger.Balance(s.ctx, s.payer)
	s.Equal(10_000-cost, bal)

	var got note
	s.Require().NoError(s.ledger.Load(s.ctx, addr, testKind, &got))
	s.Equal("hello", got.Text)
}

func (s *LedgerSuite) TestCreateRejectsLiveRecord() {
	addr := ledger.Address{0x01}
	s.Require().NoError(s.create(addr, "first"))

	err := s.create(addr, "second")
	s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)
}

func (s *LedgerSuite) TestFailedTransactionLeavesNoTrace() {
	addr := ledger.Address{0x02}
	before := s.ledger.Head()

	boom := errors.New("boom")
	_, err := s.ledger.Execute(s.ctx, func(tx *ledger.Tx) error {
		if err := tx.Create(s.payer, addr, testKind, note{Text: "x"}); err != nil {
			return err
		}
		return boom
	})
	s.Require().ErrorIs(err, boom)

	s.Equal(before, s.ledger.Head())
	_, err = s.ledger.Account(s.ctx, addr)
	s.ErrorIs(err, sentinel.ErrNotFound)
	bal, _ := s.ledger.Balance(s.ctx, s.payer)
	s.Equal(uint64(10_000), bal)
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.TransactionsAborted.WithLabelValues("internal_error")))
}

func (s *LedgerSuite) TestCloseTombstonesAndRefunds() {
	addr := ledger.Address{0x03}
	refund := ledger.Address{0xBB}
	s.Require().NoError(s.create(addr, "closing"))
	deposit, _ := s.ledger.Balance(s.ctx, addr)

	_, err := s.ledger.Execute(s.ctx, func(tx *ledger.Tx) error {
		return tx.Close(addr, refund)
	})
	s.Require().NoError(err)

	var got note
	s.ErrorIs(s.ledger.Load(s.ctx, addr, testKind, &got), sentinel.ErrClosed)
	bal, _ := s.ledger.Balance(s.ctx, refund)
	s.Equal(deposit, bal)

	s.Run("tombstone can be reused", func() {
		s.Require().NoError(s.create(addr, "again"))
		s.Require().NoError(s.ledger.Load(s.ctx, addr, testKind, &got))
		s.Equal("again", got.Text)
	})
}

func (s *LedgerSuite) TestLoadKindMismatch() {
	addr := ledger.Address{0x04}
	s.Require().NoError(s.create(addr, "typed"))

	var got note
	err := s.ledger.Load(s.ctx, addr, ledger.Kind("other"), &got)
	s.ErrorIs(err, sentinel.ErrKindMismatch)

	err = s.ledger.Load(s.ctx, s.payer, testKind, &got)
	s.ErrorIs(err, sentinel.ErrNotFound, "plain value accounts hold no record")
}

func (s *LedgerSuite) TestTransfer() {
	to := ledger.Address{0xCC}
	s.Run("moves value", func() {
		_, err := s.ledger.Execute(s.ctx, func(tx *ledger.Tx) error {
			return tx.Transfer(s.payer, to, 2_500)
		})
		s.Require().NoError(err)
		bal, _ := s.ledger.Balance(s.ctx, to)
		s.Equal(uint64(2_500), bal)
	})
	s.Run("insufficient funds aborts", func() {
		_, err := s.ledger.Execute(s.ctx, func(tx *ledger.Tx) error {
			return tx.Transfer(to, s.payer, 2_501)
		})
		s.ErrorIs(err, sentinel.ErrInsufficientFunds)
		bal, _ := s.ledger.Balance(s.ctx, to)
		s.Equal(uint64(2_500), bal)
	})
}

func (s *LedgerSuite) TestStateRootIsDeterministic() {
	other := store.NewMemDB()
	replica, err := ledger.Open(s.ctx, other, s.params)
	s.Require().NoError(err)
	_, err = replica.Genesis(s.ctx, map[ledger.Address]uint64{s.payer: 10_000})
	s.Require().NoError(err)

	for _, l := range []*ledger.Ledger{s.ledger, replica} {
		_, err := l.Execute(s.ctx, func(tx *ledger.Tx) error {
			if err := tx.Create(s.payer, ledger.Address{0x10}, testKind, note{Text: "a"}); err != nil {
				return err
			}
			return tx.Create(s.payer, ledger.Address{0x11}, testKind, note{Text: "b"})
		})
		s.Require().NoError(err)
	}
	s.Equal(s.ledger.Head(), replica.Head())
}

func (s *LedgerSuite) TestReopenRestoresHead() {
	s.Require().NoError(s.create(ledger.Address{0x05}, "persist"))
	head := s.ledger.Head()

	reopened, err := ledger.Open(s.ctx, s.kv, s.params)
	s.Require().NoError(err)
	s.Equal(head, reopened.Head())
}

func (s *LedgerSuite) TestExecutedHashSurvivesReopen() {
	ctx := requestcontext.WithTxHash(s.ctx, "c0ffee")
	commit, err := s.ledger.Execute(ctx, func(tx *ledger.Tx) error {
		return tx.Transfer(s.payer, ledger.Address{0x07}, 10)
	})
	s.Require().NoError(err)

	height, err := s.ledger.ExecutedAt(s.ctx, "c0ffee")
	s.Require().NoError(err)
	s.Equal(commit.Height, height)

	reopened, err := ledger.Open(s.ctx, s.kv, s.params)
	s.Require().NoError(err)
	head := reopened.Head()
	called := false
	_, err = reopened.Execute(ctx, func(tx *ledger.Tx) error {
		called = true
		return tx.Transfer(s.payer, ledger.Address{0x07}, 10)
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeReplayedTransaction), "got %v", err)
	s.False(called)
	s.Equal(head, reopened.Head())
	bal, _ := reopened.Balance(s.ctx, ledger.Address{0x07})
	s.Equal(uint64(10), bal)
}

func (s *LedgerSuite) TestFailedTransactionDoesNotRecordHash() {
	ctx := requestcontext.WithTxHash(s.ctx, "beef")
	_, err := s.ledger.Execute(ctx, func(*ledger.Tx) error { return errors.New("boom") })
	s.Require().Error(err)

	_, err = s.ledger.ExecutedAt(s.ctx, "beef")
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.ledger.Execute(ctx, func(tx *ledger.Tx) error {
		return tx.Transfer(s.payer, ledger.Address{0x08}, 1)
	})
	s.NoError(err)
}

func (s *LedgerSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	called := false
	_, err := s.ledger.Execute(ctx, func(*ledger.Tx) error {
		called = true
		return nil
	})
	s.Require().Error(err)
	s.False(called)
}

func (s *LedgerSuite) TestConcurrentCreatesSerialize() {
	addr := ledger.Address{0x06}
	const workers = 16

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.create(addr, "race")
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		s.ErrorIs(err, sentinel.ErrAlreadyUsed)
	}
	s.Equal(1, succeeded)
}

func (s *LedgerSuite) TestDeriveIsStable() {
	a := ledger.Derive(s.params.ProgramID, []byte("title_deed"), []byte("LR-1"))
	b := ledger.Derive(s.params.ProgramID, []byte("title_deed"), []byte("LR-1"))
	c := ledger.Derive(ledger.ProgramIDFromName("other"), []byte("title_deed"), []byte("LR-1"))
	s.Equal(a, b)
	s.NotEqual(a, c)

	parsed, err := ledger.ParseAddress(a.String())
	s.Require().NoError(err)
	s.Equal(a, parsed)
	_, err = ledger.ParseAddress("abcd")
	s.Error(err)
}
