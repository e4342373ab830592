package database

const (
	UsersCollection         = "users"
	RefreshTokensCollection = "refreshtokens"
	RoutesCollection        = "routes"
	PostsCollection         = "posts"
	ChallengesCollection    = "challenges"
	ParticipantsCollection  = "challengeparticipants"
	CommunitiesCollection   = "communities"
	PostLikesCollection     = "userpostlikes"
	RouteLikesCollection    = "userroutelikes"
	ClimbedRoutesCollection = "userclimbedroutes"
)
