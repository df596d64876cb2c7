package constants

// SupportedChain describes a chain the registry contract is deployed to.
type SupportedChain struct {
	ChainID         int64  `json:"chain_id"`
	Name            string `json:"name"`
	DisplayName     string `json:"display_name"`
	Testnet         bool   `json:"testnet"`
	ContractAddress string `json:"contract_address"`
	ValidatorURL    string `json:"validator_url"`
}

const (
	MainnetValidatorURL = "https://tableland.network"
	TestnetValidatorURL = "https://testnets.tableland.network"
	LocalValidatorURL   = "http://localhost:8080"
)

// SupportedChains is keyed by the numeric chain id embedded in table names.
var SupportedChains = map[int64]SupportedChain{
	1: {
		ChainID: 1, Name: "mainnet", DisplayName: "Ethereum",
		ContractAddress: "0x012969f7e3439a9B04025b5a049EB9BAD82A8C12",
		ValidatorURL:    MainnetValidatorURL,
	},
	10: {
		ChainID: 10, Name: "optimism", DisplayName: "Optimism",
		ContractAddress: "0xfad44BF5B843dE943a09D4f3E84949A11d3aa3e6",
		ValidatorURL:    MainnetValidatorURL,
	},
	42161: {
		ChainID: 42161, Name: "arbitrum", DisplayName: "Arbitrum One",
		ContractAddress: "0x9aBd75E8640871A5a20d3B4eE6330a04c962aFfd",
		ValidatorURL:    MainnetValidatorURL,
	},
	42170: {
		ChainID: 42170, Name: "arbitrum-nova", DisplayName: "Arbitrum Nova",
		ContractAddress: "0x1A22854c5b1642760a827f20137a67930AE108d2",
		ValidatorURL:    MainnetValidatorURL,
	},
	137: {
		ChainID: 137, Name: "matic", DisplayName: "Polygon",
		ContractAddress: "0x5c4e6A9e5C1e1BF445A062006faF19EA6c49aFeA",
		ValidatorURL:    MainnetValidatorURL,
	},
	314: {
		ChainID: 314, Name: "filecoin", DisplayName: "Filecoin",
		ContractAddress: "0x59EF8Bf2d6c102B4c42AEf9189e1a9F0ABfD652d",
		ValidatorURL:    MainnetValidatorURL,
	},
	11155111: {
		ChainID: 11155111, Name: "sepolia", DisplayName: "Sepolia", Testnet: true,
		ContractAddress: "0xc50C62498448ACc8dBdE43DA77f8D5D2E2c7597D",
		ValidatorURL:    TestnetValidatorURL,
	},
	11155420: {
		ChainID: 11155420, Name: "optimism-sepolia", DisplayName: "Optimism Sepolia", Testnet: true,
		ContractAddress: "0x68A2f4423ad3bf5139Db563CF3bC80aA09ed7079",
		ValidatorURL:    TestnetValidatorURL,
	},
	421614: {
		ChainID: 421614, Name: "arbitrum-sepolia", DisplayName: "Arbitrum Sepolia", Testnet: true,
		ContractAddress: "0x223A74B8323914afDC3ff1e5005564dC17231d6e",
		ValidatorURL:    TestnetValidatorURL,
	},
	80001: {
		ChainID: 80001, Name: "maticmum", DisplayName: "Polygon Mumbai", Testnet: true,
		ContractAddress: "0x4b48841d4b32C4650E4ABc117A03FE8B51f38F68",
		ValidatorURL:    TestnetValidatorURL,
	},
	80002: {
		ChainID: 80002, Name: "polygon-amoy", DisplayName: "Polygon Amoy", Testnet: true,
		ContractAddress: "0x170fb206132b693e38adFc8727dCfa303546Cec1",
		ValidatorURL:    TestnetValidatorURL,
	},
	314159: {
		ChainID: 314159, Name: "filecoin-calibration", DisplayName: "Filecoin Calibration", Testnet: true,
		ContractAddress: "0x030BCf3D50cad04c2e57391B12740982A9308621",
		ValidatorURL:    TestnetValidatorURL,
	},
	31337: {
		ChainID: 31337, Name: "local-tableland", DisplayName: "Local Tableland", Testnet: true,
		ContractAddress: "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512",
		ValidatorURL:    LocalValidatorURL,
	},
}

// IsSupportedChain reports whether chainID is present in SupportedChains.
func IsSupportedChain(chainID int64) bool {
	_, ok := SupportedChains[chainID]
	return ok
}
