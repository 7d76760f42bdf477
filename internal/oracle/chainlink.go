package oracle

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
)

const aggregatorV3ABIJSON = `[{"inputs":[],"name":"latestRoundData","outputs":[{"internalType":"uint80","name":"roundId","type":"uint80"},{"internalType":"int256","name":"answer","type":"int256"},{"internalType":"uint256","name":"startedAt","type":"uint256"},{"internalType":"uint256","name":"updatedAt","type":"uint256"},{"internalType":"uint80","name":"answeredInRound","type":"uint80"}],"stateMutability":"view","type":"function"}]`

var aggregatorV3ABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(aggregatorV3ABIJSON))
	if err != nil {
		panic("failed to parse AggregatorV3 ABI: " + err.Error())
	}
	aggregatorV3ABI = parsed
}

// ChainlinkOptions parameterise the on-chain feed adapter.
type ChainlinkOptions struct {
	RPCURL            string
	AggregatorAddress string
	Timeout           time.Duration
}

// Chainlink reads a price feed from an AggregatorV3 contract over
// Ethereum RPC. It implements PriceSource.
type Chainlink struct {
	opts      ChainlinkOptions
	logger    zerolog.Logger
	client    *ethclient.Client
	clientMux sync.Mutex
}

// NewChainlink builds a new aggregator feed adapter.
func NewChainlink(opts ChainlinkOptions, logger zerolog.Logger) *Chainlink {
	return &Chainlink{opts: opts, logger: logger.With().Str("component", "chainlink_source").Logger()}
}

// LatestRound fetches latestRoundData from the aggregator contract.
func (c *Chainlink) LatestRound(ctx context.Context) (Round, error) {
	if c.opts.RPCURL == "" {
		return Round{}, errors.New("ethereum rpc url not configured")
	}
	if c.opts.AggregatorAddress == "" {
		return Round{}, errors.New("aggregator contract address not configured")
	}

	timeout := c.opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var cancel context.CancelFunc
	ctx, cancel = context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := c.getClient(ctx)
	if err != nil {
		return Round{}, err
	}

	addr := common.HexToAddress(c.opts.AggregatorAddress)

	payload, err := aggregatorV3ABI.Pack("latestRoundData")
	if err != nil {
		return Round{}, err
	}

	res, err := client.CallContract(ctx, ethereum.CallMsg{To: &addr, Data: payload}, nil)
	if err != nil {
		return Round{}, err
	}

	outputs, err := aggregatorV3ABI.Unpack("latestRoundData", res)
	if err != nil {
		return Round{}, err
	}

	if len(outputs) != 5 {
		return Round{}, errors.New("unexpected latestRoundData response")
	}

	roundID, ok1 := outputs[0].(*big.Int)
	answer, ok2 := outputs[1].(*big.Int)
	startedAt, ok3 := outputs[2].(*big.Int)
	updatedAt, ok4 := outputs[3].(*big.Int)
	answeredIn, ok5 := outputs[4].(*big.Int)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
		return Round{}, errors.New("failed to decode latestRoundData output")
	}

	return Round{
		RoundID:         roundID.Uint64(),
		Price:           answer.Int64(),
		StartedAt:       startedAt.Int64(),
		UpdatedAt:       updatedAt.Int64(),
		AnsweredInRound: answeredIn.Uint64(),
	}, nil
}

func (c *Chainlink) getClient(ctx context.Context) (*ethclient.Client, error) {
	c.clientMux.Lock()
	defer c.clientMux.Unlock()

	if c.client != nil {
		return c.client, nil
	}

	client, err := ethclient.DialContext(ctx, c.opts.RPCURL)
	if err != nil {
		return nil, err
	}
	c.client = client
	return client, nil
}

var _ PriceSource = (*Chainlink)(nil)
