package multisig

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/govsign/internal/core/infrastructure/crypto/key"
	"github.com/weisyn/govsign/internal/core/infrastructure/crypto/signature"
	"github.com/weisyn/govsign/pkg/types"
)

func newKeypairs(t *testing.T, n int) ([]*key.Keypair, []key.PublicKey) {
	t.Helper()
	keypairs := make([]*key.Keypair, n)
	publicKeys := make([]key.PublicKey, n)
	for i := 0; i < n; i++ {
		kp, err := key.NewKeyManager(key.WithRandom(bytes.NewReader(bytes.Repeat([]byte{byte(i + 1)}, 32)))).Generate()
		require.NoError(t, err)
		keypairs[i] = kp
		publicKeys[i] = kp.PublicKey()
	}
	return keypairs, publicKeys
}

func signAll(t *testing.T, keypairs []*key.Keypair, message []byte) []signature.Signature {
	t.Helper()
	sigs := make([]signature.Signature, len(keypairs))
	for i, kp := range keypairs {
		sig, err := signature.Sign(kp, message)
		require.NoError(t, err)
		sigs[i] = sig
	}
	return sigs
}

func TestNew(t *testing.T) {
	_, pks := newKeypairs(t, 5)

	m, err := New(3, 5, pks)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Threshold())
	assert.Equal(t, 5, m.Total())
	assert.Equal(t, "3-of-5", m.String())
	assert.Len(t, m.PublicKeys(), 5)

	// 修改返回的副本不影响配置
	keys := m.PublicKeys()
	keys[0] = pks[4]
	assert.True(t, m.PublicKeys()[0].Equal(pks[0]))

	// 修改传入的切片不影响配置
	input := append([]key.PublicKey(nil), pks...)
	m2, err := New(2, 5, input)
	require.NoError(t, err)
	input[0] = pks[1]
	assert.True(t, m2.PublicKeys()[0].Equal(pks[0]))
}

func TestNewInvalid(t *testing.T) {
	_, pks := newKeypairs(t, 3)

	testCases := []struct {
		name      string
		threshold int
		total     int
		keys      []key.PublicKey
		kind      types.ErrorKind
	}{
		{name: "门限为零", threshold: 0, total: 3, keys: pks, kind: types.KindInvalidThreshold},
		{name: "门限为负", threshold: -1, total: 3, keys: pks, kind: types.KindInvalidThreshold},
		{name: "门限大于总数", threshold: 4, total: 3, keys: pks, kind: types.KindInvalidThreshold},
		{name: "公钥少于总数", threshold: 2, total: 3, keys: pks[:2], kind: types.KindInvalidMultisig},
		{name: "公钥多于总数", threshold: 2, total: 2, keys: pks, kind: types.KindInvalidMultisig},
		{name: "重复公钥", threshold: 2, total: 2, keys: []key.PublicKey{pks[0], pks[0]}, kind: types.KindInvalidMultisig},
		{name: "零值公钥", threshold: 1, total: 2, keys: []key.PublicKey{pks[0], {}}, kind: types.KindInvalidMultisig},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := New(tc.threshold, tc.total, tc.keys)
			require.Error(t, err)
			assert.Nil(t, m)
			assert.Equal(t, tc.kind, types.KindOf(err))
		})
	}

	_, err := New(0, 3, pks)
	var thresholdErr *types.ErrInvalidThreshold
	require.True(t, errors.As(err, &thresholdErr))
	assert.Equal(t, 0, thresholdErr.Threshold)
	assert.Equal(t, 3, thresholdErr.Total)
}

func TestVerifyReleaseScenario(t *testing.T) {
	keypairs, pks := newKeypairs(t, 5)
	m, err := New(3, 5, pks)
	require.NoError(t, err)

	msg := types.Release{Version: "v1.0.0", CommitHash: "abc123"}
	message := msg.SigningBytes()

	sigs := signAll(t, keypairs[:3], message)
	ok, err := m.Verify(message, sigs)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.VerifyMessage(msg, sigs)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = m.Verify(message, sigs[:2])
	var insufficient *types.ErrInsufficientSignatures
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 2, insufficient.Got)
	assert.Equal(t, 3, insufficient.Need)
}

func TestVerifyAllSigners(t *testing.T) {
	keypairs, pks := newKeypairs(t, 4)
	m, err := New(3, 4, pks)
	require.NoError(t, err)

	message := []byte("MODULE:lightning:v2.0.0")
	ok, err := m.Verify(message, signAll(t, keypairs, message))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyWithInvalidSignatures(t *testing.T) {
	keypairs, pks := newKeypairs(t, 5)
	outsiders, _ := newKeypairs(t, 7)
	m, err := New(3, 5, pks)
	require.NoError(t, err)

	message := []byte("BUDGET:1000000:development")

	// 两个授权签名 + 一个非授权签名：数量够但有效签名不足
	sigs := append(signAll(t, keypairs[:2], message), signAll(t, outsiders[6:], message)...)
	ok, err := m.Verify(message, sigs)
	require.NoError(t, err)
	assert.False(t, ok)

	// 签署了不同消息
	wrong := signAll(t, keypairs[:3], []byte("BUDGET:1000001:development"))
	ok, err = m.Verify(message, wrong)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSameSignerCountedOnce(t *testing.T) {
	keypairs, pks := newKeypairs(t, 5)
	m, err := New(3, 5, pks)
	require.NoError(t, err)

	message := []byte("RELEASE:v1.0.0:abc123")
	sigs := signAll(t, keypairs[:2], message)
	// 同一签署者重复提交
	sigs = append(sigs, sigs[0], sigs[0])

	assert.Equal(t, []int{0, 1}, m.CollectValidSignatures(message, sigs))

	ok, err := m.Verify(message, sigs)
	require.NoError(t, err)
	assert.False(t, ok, "重复签名不能凑够门限")
}

func TestCollectValidSignatures(t *testing.T) {
	keypairs, pks := newKeypairs(t, 5)
	m, err := New(2, 5, pks)
	require.NoError(t, err)

	message := []byte("MODULE:oracle:v1.0.0")
	// 乱序提交
	sigs := signAll(t, []*key.Keypair{keypairs[4], keypairs[1], keypairs[3]}, message)
	assert.Equal(t, []int{4, 1, 3}, m.CollectValidSignatures(message, sigs))

	assert.Empty(t, m.CollectValidSignatures(message, nil))
	assert.Empty(t, m.CollectValidSignatures([]byte("other"), sigs))
}

func TestEvaluate(t *testing.T) {
	keypairs, pks := newKeypairs(t, 5)
	m, err := New(3, 5, pks)
	require.NoError(t, err)

	message := []byte("RELEASE:v2.0.0:def456")
	sigs := signAll(t, []*key.Keypair{keypairs[2], keypairs[0], keypairs[4]}, message)

	indices, approved, err := m.Evaluate(message, sigs)
	require.NoError(t, err)
	assert.True(t, approved)
	assert.Equal(t, []int{2, 0, 4}, indices)

	// 与 Verify 结论一致
	ok, err := m.Verify(message, sigs)
	require.NoError(t, err)
	assert.Equal(t, approved, ok)

	// 数量不足时不返回索引
	indices, approved, err = m.Evaluate(message, sigs[:2])
	assert.Equal(t, types.KindInsufficientSignatures, types.KindOf(err))
	assert.False(t, approved)
	assert.Nil(t, indices)

	// 数量够但有一个签错了消息
	mixed := append(sigs[:2:2], signAll(t, keypairs[3:4], []byte("RELEASE:v2.0.0:other"))...)
	indices, approved, err = m.Evaluate(message, mixed)
	require.NoError(t, err)
	assert.False(t, approved)
	assert.Equal(t, []int{2, 0}, indices)
}

func TestIsValidSignature(t *testing.T) {
	keypairs, pks := newKeypairs(t, 3)
	outsiders, _ := newKeypairs(t, 4)
	m, err := New(2, 3, pks)
	require.NoError(t, err)

	message := []byte("RELEASE:v3.0.0:fff")
	sig, err := signature.Sign(keypairs[2], message)
	require.NoError(t, err)

	idx, ok := m.IsValidSignature(sig, message)
	assert.True(t, ok)
	assert.Equal(t, 2, idx)

	outsiderSig, err := signature.Sign(outsiders[3], message)
	require.NoError(t, err)
	idx, ok = m.IsValidSignature(outsiderSig, message)
	assert.False(t, ok)
	assert.Equal(t, -1, idx)
}

func TestVerifyIsIdempotent(t *testing.T) {
	keypairs, pks := newKeypairs(t, 3)
	m, err := New(2, 3, pks)
	require.NoError(t, err)

	message := []byte("RELEASE:v1:c")
	sigs := signAll(t, keypairs[:2], message)
	for i := 0; i < 3; i++ {
		ok, err := m.Verify(message, sigs)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}
