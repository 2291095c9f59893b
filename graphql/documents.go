package graphql

// Queries against the arena application

const GetPlatformInfo = `
  query GetPlatformInfo {
    platformInfo {
      chainId
      feeBps
      minBet
      maxBet
      paused
      totalVolume
      totalFees
      totalDuels
      queueLength
    }
  }
`

const GetChainID = `
  query GetChainId {
    chainId
  }
`

const GetQueue = `
  query GetQueue {
    queueLength
    queue {
      player
      asset
      betAmount
      joinedAt
    }
  }
`

const GetQueueLength = `
  query GetQueueLength {
    queueLength
  }
`

// GetCounters is what the notification poller sends every cycle
const GetCounters = `{ queueLength totalDuels }`

const duelFields = `
      id
      player1
      player2
      asset
      betAmount
      status
      createdAt
      winner
      p1Prediction
      p2Prediction
      startPrice
      endPrice
      startedAt`

const GetDuel = `
  query GetDuel($id: String!) {
    duel(id: $id) {` + duelFields + `
    }
  }
`

const GetActiveDuels = `
  query GetActiveDuels {
    activeDuels {` + duelFields + `
    }
  }
`

const GetRecentDuels = `
  query GetRecentDuels($limit: Int) {
    recentDuels(limit: $limit) {
      id
      player1
      player2
      asset
      betAmount
      status
      winner
      startPrice
      endPrice
    }
  }
`

const GetPlayerStats = `
  query GetPlayerStats($player: String!) {
    playerStats(player: $player) {
      wins
      losses
      totalWagered
      totalWon
      winStreak
      bestStreak
      winRate
    }
  }
`

const GetPlayerBalance = `
  query GetPlayerBalance($player: String!) {
    playerBalance(player: $player)
  }
`

const GetLeaderboard = `
  query GetLeaderboard($limit: Int) {
    leaderboard(limit: $limit) {
      rank
      player
      wins
      losses
      winRate
      totalWon
    }
  }
`

const GetPrice = `
  query GetPrice($asset: String!) {
    price(asset: $asset) {
      asset
      price
      timestamp
    }
  }
`

const GetAllPrices = `
  query GetAllPrices {
    btcPrice: price(asset: "BTC") {
      asset
      price
      timestamp
    }
    ethPrice: price(asset: "ETH") {
      asset
      price
      timestamp
    }
  }
`

// Mutations

const JoinQueue = `
  mutation JoinQueue($asset: String!, $betAmount: String!) {
    joinQueue(asset: $asset, betAmount: $betAmount)
  }
`

const LeaveQueue = `
  mutation LeaveQueue {
    leaveQueue
  }
`

const SubmitPrediction = `
  mutation SubmitPrediction($duelId: String!, $direction: String!) {
    submitPrediction(duelId: $duelId, direction: $direction)
  }
`

const Deposit = `
  mutation Deposit($amount: String!) {
    deposit(amount: $amount)
  }
`

const Withdraw = `
  mutation Withdraw($amount: String!) {
    withdraw(amount: $amount)
  }
`

// UpdatePrice is accepted from the oracle only
const UpdatePrice = `
  mutation UpdatePrice($asset: String!, $price: String!) {
    updatePrice(asset: $asset, price: $price)
  }
`

const CancelDuel = `
  mutation CancelDuel($duelId: String!) {
    cancelDuel(duelId: $duelId)
  }
`

const ResolveDuel = `
  mutation ResolveDuel($duelId: String!, $endPrice: String!) {
    resolveDuel(duelId: $duelId, endPrice: $endPrice)
  }
`

// NotificationsSubscription is used by push notifiers over the websocket endpoint
const NotificationsSubscription = `subscription Notifications($chainId: ID!) { notifications(chainId: $chainId) }`
