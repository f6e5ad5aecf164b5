package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"vidtube/internal/domain/content/model"
	"vidtube/internal/pkg/uploader"
	"vidtube/internal/pkg/worker"
	"vidtube/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// memoryStore 内存版 EntityStore，点赞与订阅的唯一约束与数据库一致
type memoryStore struct {
	mu       sync.Mutex
	users    map[string]bool
	videos   map[string]*model.Video
	posts    map[string]*model.CommunityPost
	comments map[string]*model.Comment
	likes    map[string]*model.Like // key: liker|kind|id
	subs     map[string]*model.Subscription
	lists    map[string]*model.Playlist
	items    map[string]map[string]int

	// 按方法名注入错误
	fail map[string]error
	// 按目标注入 DeleteLikesByTarget 错误
	failLikesOf map[model.Target]error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:       map[string]bool{},
		videos:      map[string]*model.Video{},
		posts:       map[string]*model.CommunityPost{},
		comments:    map[string]*model.Comment{},
		likes:       map[string]*model.Like{},
		subs:        map[string]*model.Subscription{},
		lists:       map[string]*model.Playlist{},
		items:       map[string]map[string]int{},
		fail:        map[string]error{},
		failLikesOf: map[model.Target]error{},
	}
}

func newID() string { return uuid.NewString() }

func likeKey(liker string, t model.Target) string { return liker + "|" + string(t.Kind) + "|" + t.ID }

func (s *memoryStore) failed(op string) error {
	if err, ok := s.fail[op]; ok {
		return err
	}
	return nil
}

func (s *memoryStore) addUser() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := newID()
	s.users[id] = true
	return id
}

func (s *memoryStore) addVideo(owner string, published bool) *model.Video {
	v := &model.Video{OwnerID: owner, Title: "t", Description: "d", VideoFile: "https://cdn/video/" + newID() + ".mp4", Thumbnail: "https://cdn/image/" + newID() + ".png", IsPublished: published}
	v.ID = newID()
	s.mu.Lock()
	s.videos[v.ID] = v
	s.mu.Unlock()
	return v
}

func (s *memoryStore) addPost(owner string) *model.CommunityPost {
	p := &model.CommunityPost{OwnerID: owner, Content: "hello"}
	p.ID = newID()
	s.mu.Lock()
	s.posts[p.ID] = p
	s.mu.Unlock()
	return p
}

func (s *memoryStore) addComment(owner string, parent model.Target) *model.Comment {
	c, _ := model.NewComment(owner, parent, "nice")
	c.ID = newID()
	s.mu.Lock()
	s.comments[c.ID] = c
	s.mu.Unlock()
	return c
}

func (s *memoryStore) addLike(liker string, t model.Target) {
	l := &model.Like{LikerID: liker, TargetKind: t.Kind, TargetID: t.ID}
	l.ID = newID()
	s.mu.Lock()
	s.likes[likeKey(liker, t)] = l
	s.mu.Unlock()
}

func (s *memoryStore) likeCount(t model.Target) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range s.likes {
		if l.Target() == t {
			n++
		}
	}
	return n
}

func (s *memoryStore) hasComment(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.comments[id]
	return ok
}

func (s *memoryStore) CreateVideo(ctx context.Context, v *model.Video) error {
	if err := s.failed("CreateVideo"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v.ID = newID()
	cp := *v
	s.videos[v.ID] = &cp
	return nil
}

func (s *memoryStore) GetVideo(ctx context.Context, id string) (*model.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[id]
	if !ok {
		return nil, apperror.NotFound("video", id)
	}
	cp := *v
	return &cp, nil
}

func (s *memoryStore) UpdateVideo(ctx context.Context, id string, fields map[string]interface{}) error {
	if err := s.failed("UpdateVideo"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[id]
	if !ok {
		return apperror.NotFound("video", id)
	}
	for k, val := range fields {
		switch k {
		case "title":
			v.Title = val.(string)
		case "description":
			v.Description = val.(string)
		case "thumbnail":
			v.Thumbnail = val.(string)
		case "is_published":
			v.IsPublished = val.(bool)
		}
	}
	return nil
}

func (s *memoryStore) DeleteVideo(ctx context.Context, id string) error {
	if err := s.failed("DeleteVideo"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[id]; !ok {
		return apperror.NotFound("video", id)
	}
	delete(s.videos, id)
	return nil
}

func (s *memoryStore) IncrementViews(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.videos[id]; ok {
		v.Views++
		return nil
	}
	return apperror.NotFound("video", id)
}

func (s *memoryStore) CreatePost(ctx context.Context, p *model.CommunityPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = newID()
	cp := *p
	s.posts[p.ID] = &cp
	return nil
}

func (s *memoryStore) GetPost(ctx context.Context, id string) (*model.CommunityPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, apperror.NotFound("community post", id)
	}
	cp := *p
	return &cp, nil
}

func (s *memoryStore) UpdatePostContent(ctx context.Context, id, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return apperror.NotFound("community post", id)
	}
	p.Content = content
	return nil
}

func (s *memoryStore) DeletePost(ctx context.Context, id string) error {
	if err := s.failed("DeletePost"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return apperror.NotFound("community post", id)
	}
	delete(s.posts, id)
	return nil
}

func (s *memoryStore) CreateComment(ctx context.Context, c *model.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = newID()
	cp := *c
	s.comments[c.ID] = &cp
	return nil
}

func (s *memoryStore) GetComment(ctx context.Context, id string) (*model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return nil, apperror.NotFound("comment", id)
	}
	cp := *c
	return &cp, nil
}

func (s *memoryStore) UpdateCommentContent(ctx context.Context, id, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return apperror.NotFound("comment", id)
	}
	c.Content = content
	return nil
}

func (s *memoryStore) DeleteComment(ctx context.Context, id string) error {
	if err := s.failed("DeleteComment"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[id]; !ok {
		return apperror.NotFound("comment", id)
	}
	delete(s.comments, id)
	return nil
}

func (s *memoryStore) ListCommentIDs(ctx context.Context, parent model.Target) ([]string, error) {
	if err := s.failed("ListCommentIDs"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for id, c := range s.comments {
		if c.Parent() == parent {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *memoryStore) FindAndDeleteLike(ctx context.Context, likerID string, target model.Target) (*model.Like, error) {
	if err := s.failed("FindAndDeleteLike"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := likeKey(likerID, target)
	l, ok := s.likes[key]
	if !ok {
		return nil, nil
	}
	delete(s.likes, key)
	return l, nil
}

func (s *memoryStore) CreateLike(ctx context.Context, like *model.Like) (bool, error) {
	if err := s.failed("CreateLike"); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := likeKey(like.LikerID, like.Target())
	if existing, ok := s.likes[key]; ok {
		*like = *existing
		return false, nil
	}
	like.ID = newID()
	like.CreatedAt = time.Now()
	cp := *like
	s.likes[key] = &cp
	return true, nil
}

func (s *memoryStore) DeleteLikesByTarget(ctx context.Context, target model.Target) (int64, error) {
	if err, ok := s.failLikesOf[target]; ok {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, l := range s.likes {
		if l.Target() == target {
			delete(s.likes, k)
			n++
		}
	}
	return n, nil
}

func (s *memoryStore) FindAndDeleteSubscription(ctx context.Context, subscriberID, channelID string) (*model.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := subscriberID + "|" + channelID
	sub, ok := s.subs[key]
	if !ok {
		return nil, nil
	}
	delete(s.subs, key)
	return sub, nil
}

func (s *memoryStore) CreateSubscription(ctx context.Context, sub *model.Subscription) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := sub.SubscriberID + "|" + sub.ChannelID
	if existing, ok := s.subs[key]; ok {
		*sub = *existing
		return false, nil
	}
	sub.ID = newID()
	cp := *sub
	s.subs[key] = &cp
	return true, nil
}

func (s *memoryStore) CreatePlaylist(ctx context.Context, p *model.Playlist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = newID()
	cp := *p
	s.lists[p.ID] = &cp
	s.items[p.ID] = map[string]int{}
	return nil
}

func (s *memoryStore) GetPlaylist(ctx context.Context, id string) (*model.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.lists[id]
	if !ok {
		return nil, apperror.NotFound("playlist", id)
	}
	cp := *p
	return &cp, nil
}

func (s *memoryStore) UpdatePlaylist(ctx context.Context, id string, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.lists[id]
	if !ok {
		return apperror.NotFound("playlist", id)
	}
	if v, ok := fields["name"]; ok {
		p.Name = v.(string)
	}
	if v, ok := fields["description"]; ok {
		p.Description = v.(string)
	}
	return nil
}

func (s *memoryStore) DeletePlaylist(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lists[id]; !ok {
		return apperror.NotFound("playlist", id)
	}
	delete(s.lists, id)
	delete(s.items, id)
	return nil
}

func (s *memoryStore) AddPlaylistVideo(ctx context.Context, playlistID, videoID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.items[playlistID]
	if _, ok := items[videoID]; ok {
		return false, nil
	}
	items[videoID] = len(items) + 1
	return true, nil
}

func (s *memoryStore) RemovePlaylistVideo(ctx context.Context, playlistID, videoID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.items[playlistID]
	if _, ok := items[videoID]; !ok {
		return false, nil
	}
	delete(items, videoID)
	return true, nil
}

func (s *memoryStore) UserExists(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id], nil
}

func (s *memoryStore) Exists(ctx context.Context, target model.Target) (bool, error) {
	if err := s.failed("Exists"); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	switch target.Kind {
	case model.KindVideo:
		_, ok := s.videos[target.ID]
		return ok, nil
	case model.KindCommunityPost:
		_, ok := s.posts[target.ID]
		return ok, nil
	case model.KindComment:
		_, ok := s.comments[target.ID]
		return ok, nil
	}
	return false, nil
}

// MockBlobStore is a mock of uploader.BlobStore
type MockBlobStore struct {
	mock.Mock
}

func (m *MockBlobStore) Upload(ctx context.Context, localPath string, category uploader.Category) (string, error) {
	args := m.Called(ctx, localPath, category)
	return args.String(0), args.Error(1)
}

func (m *MockBlobStore) Destroy(ctx context.Context, category uploader.Category, url string) error {
	args := m.Called(ctx, category, url)
	return args.Error(0)
}

// recordingQueue 记录提交的补偿任务
type recordingQueue struct {
	mu    sync.Mutex
	tasks []worker.CleanupTask
}

func (q *recordingQueue) AddTask(ctx context.Context, task worker.CleanupTask) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, task)
}

func (q *recordingQueue) all() []worker.CleanupTask {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]worker.CleanupTask(nil), q.tasks...)
}

var errStorage = fmt.Errorf("storage unavailable")
