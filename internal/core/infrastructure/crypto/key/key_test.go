package key

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/govsign/pkg/types"
)

// 私钥 1 对应的公钥即生成元 G
const generatorCompressedHex = "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"

func secretOne() []byte {
	secret := make([]byte, SecretKeyLength)
	secret[31] = 1
	return secret
}

type repeatReader byte

func (r repeatReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(r)
	}
	return len(p), nil
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

func TestGenerate(t *testing.T) {
	km := NewKeyManager()

	kp1, err := km.Generate()
	require.NoError(t, err)
	kp2, err := km.Generate()
	require.NoError(t, err)

	assert.False(t, kp1.PublicKey().Equal(kp2.PublicKey()), "两次生成的公钥不应相同")

	pkBytes := kp1.PublicKeyBytes()
	assert.Contains(t, []byte{0x02, 0x03}, pkBytes[0])

	// 导出再导入得到同一公钥
	secret := kp1.SecretBytes()
	restored, err := km.FromSecretBytes(secret[:])
	require.NoError(t, err)
	assert.True(t, restored.PublicKey().Equal(kp1.PublicKey()))
}

func TestGenerateWithInjectedRandom(t *testing.T) {
	// 前32字节为零（无效标量），应被跳过
	stream := append(make([]byte, SecretKeyLength), bytes.Repeat([]byte{0x01}, SecretKeyLength)...)
	km := NewKeyManager(WithRandom(bytes.NewReader(stream)))

	kp, err := km.Generate()
	require.NoError(t, err)

	secret := kp.SecretBytes()
	assert.Equal(t, bytes.Repeat([]byte{0x01}, SecretKeyLength), secret[:])
}

func TestGenerateDeterministicForSameRandom(t *testing.T) {
	kp1, err := NewKeyManager(WithRandom(repeatReader(0x07))).Generate()
	require.NoError(t, err)
	kp2, err := NewKeyManager(WithRandom(repeatReader(0x07))).Generate()
	require.NoError(t, err)

	assert.True(t, kp1.PublicKey().Equal(kp2.PublicKey()))
}

func TestGenerateRandomFailure(t *testing.T) {
	cause := errors.New("熵源不可用")
	_, err := NewKeyManager(WithRandom(errReader{err: cause})).Generate()
	require.Error(t, err)
	assert.Equal(t, types.KindCryptographic, types.KindOf(err))
	assert.ErrorIs(t, err, cause)

	// 随机源提前耗尽
	_, err = NewKeyManager(WithRandom(bytes.NewReader(make([]byte, 10)))).Generate()
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestGenerateOnlyInvalidScalars(t *testing.T) {
	// 全 0xFF 永远不小于曲线阶
	_, err := NewKeyManager(WithRandom(repeatReader(0xff))).Generate()
	require.Error(t, err)
	assert.Equal(t, types.KindCryptographic, types.KindOf(err))
}

func TestGenerateWithCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewKeyManager().GenerateWithContext(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFromSecretBytes(t *testing.T) {
	kp, err := FromSecretBytes(secretOne())
	require.NoError(t, err)
	assert.Equal(t, generatorCompressedHex, kp.PublicKey().String())

	_, err = FromSecretBytes(make([]byte, SecretKeyLength))
	require.Error(t, err)
	assert.Equal(t, types.KindInvalidKey, types.KindOf(err))

	_, err = FromSecretBytes(make([]byte, 16))
	require.Error(t, err)
	assert.Equal(t, types.KindInvalidKey, types.KindOf(err))
}

func TestFromSecretHex(t *testing.T) {
	km := NewKeyManager()

	kp, err := km.FromSecretHex("  0x0000000000000000000000000000000000000000000000000000000000000001\n")
	require.NoError(t, err)
	assert.Equal(t, generatorCompressedHex, kp.PublicKey().String())

	_, err = km.FromSecretHex("zz")
	require.Error(t, err)
	assert.Equal(t, types.KindInvalidKey, types.KindOf(err))
}

func TestPublicKeyFromBytes(t *testing.T) {
	kp, err := FromSecretBytes(secretOne())
	require.NoError(t, err)
	compressed := kp.PublicKeyBytes()

	pk, err := PublicKeyFromBytes(compressed[:])
	require.NoError(t, err)
	assert.True(t, pk.Equal(kp.PublicKey()))
	assert.Equal(t, compressed, pk.Bytes())
	assert.True(t, pk.IsValid())

	uncompressed := pk.Uncompressed()
	assert.Equal(t, byte(0x04), uncompressed[0])
	_, err = PublicKeyFromBytes(uncompressed[:])
	require.Error(t, err, "只接受压缩格式")
	assert.Equal(t, types.KindInvalidKey, types.KindOf(err))

	_, err = PublicKeyFromBytes(compressed[:32])
	require.Error(t, err)
	assert.Equal(t, types.KindInvalidKey, types.KindOf(err))
}

func TestPublicKeyFromHex(t *testing.T) {
	pk, err := PublicKeyFromHex("0x" + generatorCompressedHex)
	require.NoError(t, err)
	assert.Equal(t, generatorCompressedHex, pk.String())

	_, err = PublicKeyFromHex("not-hex")
	require.Error(t, err)
	assert.Equal(t, types.KindInvalidKey, types.KindOf(err))
}

func TestPublicKeyTextMarshal(t *testing.T) {
	pk, err := PublicKeyFromHex(generatorCompressedHex)
	require.NoError(t, err)

	data, err := json.Marshal(map[string]PublicKey{"maintainer": pk})
	require.NoError(t, err)
	assert.JSONEq(t, `{"maintainer":"`+generatorCompressedHex+`"}`, string(data))

	var decoded map[string]PublicKey
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded["maintainer"].Equal(pk))

	_, err = PublicKey{}.MarshalText()
	require.Error(t, err)
}

func TestPublicKeyFingerprint(t *testing.T) {
	pk, err := PublicKeyFromHex(generatorCompressedHex)
	require.NoError(t, err)

	// Hash160(G) 是比特币私钥 1 的压缩地址哈希
	assert.Equal(t, "751e76e8199196d454941c45d1b3a323f1433bd6", pk.Fingerprint())
}

func TestKeypairStringHidesSecret(t *testing.T) {
	kp, err := FromSecretBytes(bytes.Repeat([]byte{0x42}, SecretKeyLength))
	require.NoError(t, err)

	s := kp.String()
	assert.Contains(t, s, kp.PublicKey().String())
	assert.NotContains(t, s, "4242424242")
}

func TestKeypairZero(t *testing.T) {
	kp, err := FromSecretBytes(bytes.Repeat([]byte{0x42}, SecretKeyLength))
	require.NoError(t, err)

	kp.Zero()
	secret := kp.SecretBytes()
	assert.Equal(t, make([]byte, SecretKeyLength), secret[:])
}

func TestSecureWipe(t *testing.T) {
	data := []byte{1, 2, 3}
	SecureWipe(data)
	assert.Equal(t, []byte{0, 0, 0}, data)
}
