package entity

// MutationKind classifies a change event.
type MutationKind string

const (
	MutationCreated MutationKind = "CREATED"
	MutationUpdated MutationKind = "UPDATED"
	MutationDeleted MutationKind = "DELETED"
)

// Channel names. Post events share one channel, comment events are scoped per post.
const PostChannel = "post"

func CommentChannel(postID string) string {
	return "comment:" + postID
}

type PostEvent struct {
	Mutation MutationKind `json:"mutation"`
	Node     *Post        `json:"node"`
}

type CommentEvent struct {
	Mutation MutationKind `json:"mutation"`
	Node     *Comment     `json:"node"`
}
