package services

import (
	"sort"

	"github.com/rxtech-lab/table-studio/internal/constants"
	appErr "github.com/rxtech-lab/table-studio/pkg/errors"
)

// ChainService exposes the supported chain table with deployment-specific
// RPC and validator overrides applied.
type ChainService interface {
	ListChains() []ChainInfo
	GetChain(chainID int64) (*ChainInfo, error)
	IsSupported(chainID int64) bool
	ValidatorURLs() map[int64]string
	RPCURLs() map[int64]string
}

// ChainInfo is a supported chain as configured for this process
type ChainInfo struct {
	constants.SupportedChain
	RPCURL string `json:"rpc_url,omitempty"`
}

type chainService struct {
	rpcURLs       map[int64]string
	validatorURLs map[int64]string
}

// NewChainService creates a new ChainService. Override maps may be nil.
func NewChainService(rpcURLs, validatorURLs map[int64]string) ChainService {
	if rpcURLs == nil {
		rpcURLs = map[int64]string{}
	}
	if validatorURLs == nil {
		validatorURLs = map[int64]string{}
	}
	return &chainService{rpcURLs: rpcURLs, validatorURLs: validatorURLs}
}

// ListChains returns all supported chains ordered by chain id
func (s *chainService) ListChains() []ChainInfo {
	chains := make([]ChainInfo, 0, len(constants.SupportedChains))
	for id := range constants.SupportedChains {
		chains = append(chains, s.info(id))
	}
	sort.Slice(chains, func(i, j int) bool { return chains[i].ChainID < chains[j].ChainID })
	return chains
}

// GetChain returns a supported chain by id
func (s *chainService) GetChain(chainID int64) (*ChainInfo, error) {
	if !constants.IsSupportedChain(chainID) {
		return nil, appErr.Newf(appErr.CodeInvalid, "chain id %d is not supported", chainID)
	}
	info := s.info(chainID)
	return &info, nil
}

func (s *chainService) IsSupported(chainID int64) bool {
	return constants.IsSupportedChain(chainID)
}

// ValidatorURLs returns the validator base url of every supported chain
func (s *chainService) ValidatorURLs() map[int64]string {
	urls := make(map[int64]string, len(constants.SupportedChains))
	for id := range constants.SupportedChains {
		urls[id] = s.info(id).ValidatorURL
	}
	return urls
}

// RPCURLs returns the configured RPC endpoints
func (s *chainService) RPCURLs() map[int64]string {
	urls := make(map[int64]string, len(s.rpcURLs))
	for id, url := range s.rpcURLs {
		urls[id] = url
	}
	return urls
}

func (s *chainService) info(chainID int64) ChainInfo {
	info := ChainInfo{SupportedChain: constants.SupportedChains[chainID]}
	if url, ok := s.validatorURLs[chainID]; ok && url != "" {
		info.ValidatorURL = url
	}
	info.RPCURL = s.rpcURLs[chainID]
	return info
}
