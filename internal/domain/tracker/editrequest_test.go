package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		platform Platform
		username string
		valid    bool
	}{
		{"empty is valid", PlatformLeetCode, "", true},
		{"leetcode ok", PlatformLeetCode, "alice-2024", true},
		{"leetcode rejects spaces", PlatformLeetCode, "alice smith", false},
		{"codeforces ok", PlatformCodeForces, "tourist", true},
		{"codeforces too short", PlatformCodeForces, "ab", false},
		{"codechef lowercase only", PlatformCodeChef, "alice_01", true},
		{"codechef rejects uppercase", PlatformCodeChef, "Alice", false},
		{"codechef must start with letter", PlatformCodeChef, "1alice", false},
		{"atcoder ok", PlatformAtCoder, "chokudai", true},
		{"atcoder rejects hyphen", PlatformAtCoder, "a-b-c", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.platform, tt.username)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestNewEditRequest_ValidatesUsernames(t *testing.T) {
	_, err := NewEditRequest("user1", Usernames{}, Usernames{CodeChef: "BadName"}, "typo fix")
	assert.Error(t, err)

	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "codechef", validationErr.Field)
}

func TestNewEditRequest_StartsPending(t *testing.T) {
	req, err := NewEditRequest("user1", Usernames{LeetCode: "old"}, Usernames{LeetCode: "new"}, "renamed account")
	assert.NoError(t, err)
	assert.Equal(t, EditRequestPending, req.Status)
	assert.NotEmpty(t, req.ID)
	assert.Nil(t, req.ReviewedAt)
}

func TestEditRequest_Approve(t *testing.T) {
	req, _ := NewEditRequest("user1", Usernames{}, Usernames{LeetCode: "new"}, "")

	err := req.Approve("admin1", "looks good")
	assert.NoError(t, err)
	assert.Equal(t, EditRequestApproved, req.Status)
	assert.Equal(t, "admin1", *req.ReviewedBy)
	assert.NotNil(t, req.ReviewedAt)
}

func TestEditRequest_Reject(t *testing.T) {
	req, _ := NewEditRequest("user1", Usernames{}, Usernames{LeetCode: "new"}, "")

	err := req.Reject("admin1", "account not found")
	assert.NoError(t, err)
	assert.Equal(t, EditRequestRejected, req.Status)
}

func TestEditRequest_ReviewTwiceFails(t *testing.T) {
	req, _ := NewEditRequest("user1", Usernames{}, Usernames{LeetCode: "new"}, "")

	assert.NoError(t, req.Approve("admin1", ""))
	assert.ErrorIs(t, req.Approve("admin2", ""), ErrEditRequestClosed)
	assert.ErrorIs(t, req.Reject("admin2", ""), ErrEditRequestClosed)
}
