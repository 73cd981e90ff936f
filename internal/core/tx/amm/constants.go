package amm

// MinimumLiquidity is the share quantity permanently withheld on a
// pool's first deposit. It locks a minimal price floor so an attacker
// cannot drain a pool to zero and reinitialize it at a chosen price.
const MinimumLiquidity uint64 = 100

// FeeDenominator expresses swap fees in basis points: 10000 = 100%.
const FeeDenominator uint64 = 10000
