package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"rightguard/internal/auth"
	"rightguard/internal/dbtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type stubVerifier struct {
	ok    bool
	err   error
	calls int
}

func (v *stubVerifier) Verify(context.Context, string, float64) (bool, error) {
	v.calls++
	return v.ok, v.err
}

type PurchaseSuite struct {
	suite.Suite
	svc      *Service
	verifier *stubVerifier
	user     auth.User
}

func (s *PurchaseSuite) SetupTest() {
	gdb := dbtest.Open(s.T(), &auth.User{}, &PurchaseLog{})
	users := &auth.Service{DB: gdb}
	s.verifier = &stubVerifier{ok: true}
	s.svc = &Service{DB: gdb, Users: users, Verifier: s.verifier, Log: zap.NewNop()}

	u, _, err := users.CreateOrUpdate(context.Background(), "alice", "Texas")
	s.Require().NoError(err)
	s.user = u
}

func (s *PurchaseSuite) reload() auth.User {
	u, err := s.svc.Users.GetByID(context.Background(), s.user.ID)
	s.Require().NoError(err)
	return u
}

func (s *PurchaseSuite) TestGrantsAndLogs() {
	res, err := s.svc.Purchase(context.Background(), s.user.ID, "stateSpecific", "0xabc", 0.99)
	s.Require().NoError(err)
	s.Equal([]string{"stateSpecific"}, []string(res.User.PremiumFeatures))
	s.Equal("State-Specific Scripts", res.UnlockedFeature.Name)
	s.True(s.reload().HasFeature("stateSpecific"))

	var logs []PurchaseLog
	s.Require().NoError(s.svc.DB.Find(&logs).Error)
	s.Require().Len(logs, 1)
	s.Equal("0xabc", logs[0].TxHash)
}

func (s *PurchaseSuite) TestAmountMismatchSkipsVerification() {
	_, err := s.svc.Purchase(context.Background(), s.user.ID, "stateSpecific", "0xabc", 1.99)
	s.ErrorIs(err, ErrAmountMismatch)
	s.Zero(s.verifier.calls)
	s.Empty(s.reload().PremiumFeatures)
}

func (s *PurchaseSuite) TestInvalidFeature() {
	_, err := s.svc.Purchase(context.Background(), s.user.ID, "teleport", "0xabc", 0.99)
	s.ErrorIs(err, ErrInvalidFeature)
}

func (s *PurchaseSuite) TestVerificationFailure() {
	s.verifier.ok = false
	_, err := s.svc.Purchase(context.Background(), s.user.ID, "stateSpecific", "0xabc", 0.99)
	s.ErrorIs(err, ErrVerificationFailed)

	s.verifier.err = errors.New("rpc down")
	_, err = s.svc.Purchase(context.Background(), s.user.ID, "stateSpecific", "0xabc", 0.99)
	s.ErrorIs(err, ErrVerificationFailed)
	s.Empty(s.reload().PremiumFeatures)
}

func (s *PurchaseSuite) TestUnknownUser() {
	_, err := s.svc.Purchase(context.Background(), "nobody", "stateSpecific", "0xabc", 0.99)
	s.ErrorIs(err, ErrUserNotFound)
}

func (s *PurchaseSuite) TestAlreadyUnlockedLeavesUserUntouched() {
	ctx := context.Background()
	_, err := s.svc.Purchase(ctx, s.user.ID, "enhancedRecording", "0x1", 1.99)
	s.Require().NoError(err)
	before := s.reload()

	_, err = s.svc.Purchase(ctx, s.user.ID, "enhancedRecording", "0x2", 1.99)
	s.ErrorIs(err, ErrAlreadyUnlocked)
	after := s.reload()
	s.Equal(before.PremiumFeatures, after.PremiumFeatures)
	s.Equal(before.UpdatedAt.Unix(), after.UpdatedAt.Unix())
}

func (s *PurchaseSuite) TestMissingFields() {
	_, err := s.svc.Purchase(context.Background(), s.user.ID, "stateSpecific", "", 0.99)
	s.ErrorIs(err, ErrInvalidInput)
}

func (s *PurchaseSuite) TestEntitlementsAndAccess() {
	ctx := context.Background()
	_, err := s.svc.Purchase(ctx, s.user.ID, "unlimitedBilingual", "0x1", 4.99)
	s.Require().NoError(err)

	ents, err := s.svc.Entitlements(ctx, s.user.ID)
	s.Require().NoError(err)
	s.Require().Len(ents.Unlocked, 1)
	s.Equal("unlimitedBilingual", ents.Unlocked[0].Key)
	s.Require().Len(ents.Available, 2)
	s.Equal("stateSpecific", ents.Available[0].Key)
	s.Equal("enhancedRecording", ents.Available[1].Key)

	access, err := s.svc.ValidateAccess(ctx, s.user.ID, "unlimitedBilingual")
	s.Require().NoError(err)
	s.True(access.HasAccess)
	s.Require().NotNil(access.Feature)
	s.Equal(4.99, access.Feature.Price)

	access, err = s.svc.ValidateAccess(ctx, s.user.ID, "bogus")
	s.Require().NoError(err)
	s.False(access.HasAccess)
	s.Nil(access.Feature)

	_, err = s.svc.Entitlements(ctx, "nobody")
	s.ErrorIs(err, ErrUserNotFound)
}

func TestPurchaseSuite(t *testing.T) {
	suite.Run(t, new(PurchaseSuite))
}

func TestPurchaseLogFailureStillGrants(t *testing.T) {
	gdb := dbtest.Open(t, &auth.User{})
	users := &auth.Service{DB: gdb}
	svc := &Service{DB: gdb, Users: users, Verifier: &stubVerifier{ok: true}, Log: zap.NewNop()}

	u, _, err := users.CreateOrUpdate(context.Background(), "bob", "")
	require.NoError(t, err)

	res, err := svc.Purchase(context.Background(), u.ID, "stateSpecific", "0xabc", 0.99)
	require.NoError(t, err)
	assert.True(t, res.User.HasFeature("stateSpecific"))
}

func TestChecksumAddress(t *testing.T) {
	for _, want := range []string{
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
		"0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB",
		"0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb",
	} {
		got, err := ChecksumAddress(strings.ToLower(want))
		require.NoError(t, err)
		assert.Equal(t, want, got)

		got, err = ChecksumAddress(want)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ChecksumAddress("0x5AAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	assert.ErrorIs(t, err, ErrInvalidAddress)
	_, err = ChecksumAddress("0x1234")
	assert.ErrorIs(t, err, ErrInvalidAddress)
	_, err = ChecksumAddress("5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func rpcServer(t *testing.T, result string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "eth_getTransactionByHash", req.Method)
		assert.Equal(t, []any{"0xfeed"}, req.Params)
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":` + result + `}`))
	}))
}

func TestRPCVerifier(t *testing.T) {
	const treasury = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	ctx := context.Background()

	found := rpcServer(t, `{"hash":"0xfeed","to":"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"}`)
	defer found.Close()
	missing := rpcServer(t, `null`)
	defer missing.Close()
	elsewhere := rpcServer(t, `{"hash":"0xfeed","to":"0x0000000000000000000000000000000000000001"}`)
	defer elsewhere.Close()

	v, err := NewRPCVerifier(found.URL, "")
	require.NoError(t, err)
	ok, err := v.Verify(ctx, "0xfeed", 0.99)
	require.NoError(t, err)
	assert.True(t, ok)

	v, err = NewRPCVerifier(found.URL, strings.ToLower(treasury))
	require.NoError(t, err)
	assert.Equal(t, treasury, v.Treasury)
	ok, err = v.Verify(ctx, "0xfeed", 0.99)
	require.NoError(t, err)
	assert.True(t, ok)

	v.URL = missing.URL
	ok, err = v.Verify(ctx, "0xfeed", 0.99)
	require.NoError(t, err)
	assert.False(t, ok)

	v.URL = elsewhere.URL
	ok, err = v.Verify(ctx, "0xfeed", 0.99)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = NewRPCVerifier(found.URL, "0xnothex")
	assert.Error(t, err)
}
