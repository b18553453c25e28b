package persistence

import (
	"math/big"
	"testing"

	"github.com/Layr-Labs/gasless-relay-go/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalTokenDescriptor(t *testing.T) {
	original := &types.TokenDescriptor{ID: 1, Name: "Coin", Symbol: "CN", Decimals: 6}

	data, err := MarshalTokenDescriptor(original)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"name":"Coin","symbol":"CN","decimals":6}`, string(data))

	decoded, err := UnmarshalTokenDescriptor(data)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestTokenDescriptor_Errors(t *testing.T) {
	_, err := MarshalTokenDescriptor(nil)
	require.Error(t, err)

	_, err = UnmarshalTokenDescriptor(nil)
	require.Error(t, err)

	_, err = UnmarshalTokenDescriptor([]byte("{not json"))
	require.Error(t, err)
}

func TestAmountEncoding(t *testing.T) {
	huge, ok := new(big.Int).SetString("115792089237316195423570985008687907853269984665640564039457584007913129639935", 10)
	require.True(t, ok)

	for _, v := range []*big.Int{big.NewInt(0), big.NewInt(42), huge} {
		data, err := MarshalAmount(v)
		require.NoError(t, err)
		assert.Equal(t, v.String(), string(data))

		decoded, err := UnmarshalAmount(data)
		require.NoError(t, err)
		assert.Equal(t, 0, v.Cmp(decoded))
	}

	_, err := MarshalAmount(nil)
	require.Error(t, err)
	_, err = MarshalAmount(big.NewInt(-1))
	require.Error(t, err)
	_, err = UnmarshalAmount([]byte("-5"))
	require.Error(t, err)
	_, err = UnmarshalAmount([]byte("0xff"))
	require.Error(t, err)
}

func TestKeys(t *testing.T) {
	addr := common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")

	assert.Equal(t, "nonce:0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed:7", NonceKey(addr, 7))
	assert.Equal(t, "balance:1:0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", BalanceKey(1, addr))
	assert.Equal(t, "token:18446744073709551615", TokenKey(^uint64(0)))
}
