package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/scenariolabs/imagevault/pkg/domain"

	"github.com/go-redis/redis/v8"
)

// ErrNotFound is returned when an image record does not exist.
var ErrNotFound = errors.New("not-found")

// ErrNameTaken is returned when an image name already exists in the
// environment.
var ErrNameTaken = errors.New("image name already exists in environment")

type ImageRepository interface {
	Save(ctx context.Context, img *domain.Image) error
	GetByID(ctx context.Context, id int64) (*domain.Image, error)
	GetByFileName(ctx context.Context, fileName string) (*domain.Image, error)
	GetByEnvAndName(ctx context.Context, environmentID int64, imageName string) (*domain.Image, error)
	ListByEnvironment(ctx context.Context, environmentID int64) ([]domain.Image, error)
	ListAll(ctx context.Context) ([]domain.Image, error)
	ExistsByFileName(ctx context.Context, fileName string) (bool, error)
	UpdateName(ctx context.Context, id int64, newName string) (*domain.Image, error)
	Delete(ctx context.Context, id int64) (*domain.Image, error)
	DeleteAllByEnvironment(ctx context.Context, environmentID int64) ([]domain.Image, error)
	CountByEnvironment(ctx context.Context, environmentID int64) (int64, error)
}

type imageRedisRepo struct {
	rdb *redis.Client
	now func() time.Time
}

func NewImageRepository(rdb *redis.Client, now func() time.Time) ImageRepository {
	if now == nil {
		now = time.Now
	}
	return &imageRedisRepo{rdb: rdb, now: now}
}

func (r *imageRedisRepo) keyImagesHash() string { return "imagevault:images" }
func (r *imageRedisRepo) keyFileIndex() string  { return "imagevault:images:byfile" }
func (r *imageRedisRepo) keySeq() string        { return "imagevault:seq:image" }
func (r *imageRedisRepo) keyEnvIndex(environmentID int64) string {
	return fmt.Sprintf("imagevault:env:%d:images", environmentID)
}
func (r *imageRedisRepo) keyEnvNames(environmentID int64) string {
	return fmt.Sprintf("imagevault:env:%d:names", environmentID)
}

func (r *imageRedisRepo) Save(ctx context.Context, img *domain.Image) error {
	taken, err := r.rdb.HExists(ctx, r.keyEnvNames(img.EnvironmentID), img.ImageName).Result()
	if err != nil {
		return fmt.Errorf("redis HEXISTS name: %w", err)
	}
	if taken {
		return ErrNameTaken
	}

	if img.ID == 0 {
		id, err := r.rdb.Incr(ctx, r.keySeq()).Result()
		if err != nil {
			return fmt.Errorf("redis INCR seq: %w", err)
		}
		img.ID = id
	}
	now := r.now().UTC()
	if img.CreatedAt.IsZero() {
		img.CreatedAt = now
	}
	img.UpdatedAt = now

	b, _ := json.Marshal(img)
	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, r.keyImagesHash(), idField(img.ID), string(b))
	pipe.HSet(ctx, r.keyFileIndex(), img.FileName, idField(img.ID))
	pipe.HSet(ctx, r.keyEnvNames(img.EnvironmentID), img.ImageName, idField(img.ID))
	pipe.ZAdd(ctx, r.keyEnvIndex(img.EnvironmentID), &redis.Z{
		Score:  float64(img.CreatedAt.UnixNano()),
		Member: idField(img.ID),
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis save image: %w", err)
	}
	return nil
}

func (r *imageRedisRepo) GetByID(ctx context.Context, id int64) (*domain.Image, error) {
	js, err := r.rdb.HGet(ctx, r.keyImagesHash(), idField(id)).Result()
	if err == redis.Nil || js == "" {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis HGET image: %w", err)
	}
	var img domain.Image
	if err := json.Unmarshal([]byte(js), &img); err != nil {
		return nil, fmt.Errorf("unmarshal image: %w", err)
	}
	return &img, nil
}

func (r *imageRedisRepo) GetByFileName(ctx context.Context, fileName string) (*domain.Image, error) {
	idStr, err := r.rdb.HGet(ctx, r.keyFileIndex(), fileName).Result()
	if err == redis.Nil || idStr == "" {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis HGET file index: %w", err)
	}
	return r.getByField(ctx, idStr)
}

func (r *imageRedisRepo) GetByEnvAndName(ctx context.Context, environmentID int64, imageName string) (*domain.Image, error) {
	idStr, err := r.rdb.HGet(ctx, r.keyEnvNames(environmentID), imageName).Result()
	if err == redis.Nil || idStr == "" {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis HGET name index: %w", err)
	}
	return r.getByField(ctx, idStr)
}

func (r *imageRedisRepo) ListByEnvironment(ctx context.Context, environmentID int64) ([]domain.Image, error) {
	// Newest first.
	ids, err := r.rdb.ZRevRange(ctx, r.keyEnvIndex(environmentID), 0, -1).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("redis ZREVRANGE env index: %w", err)
	}
	if len(ids) == 0 {
		return []domain.Image{}, nil
	}
	raw, err := r.rdb.HMGet(ctx, r.keyImagesHash(), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis HMGET images: %w", err)
	}
	out := make([]domain.Image, 0, len(raw))
	for _, v := range raw {
		js, ok := v.(string)
		if !ok || js == "" {
			continue
		}
		var img domain.Image
		if err := json.Unmarshal([]byte(js), &img); err != nil {
			continue
		}
		out = append(out, img)
	}
	return out, nil
}

func (r *imageRedisRepo) ListAll(ctx context.Context) ([]domain.Image, error) {
	all, err := r.rdb.HGetAll(ctx, r.keyImagesHash()).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("redis HGETALL images: %w", err)
	}
	out := make([]domain.Image, 0, len(all))
	for _, js := range all {
		var img domain.Image
		if err := json.Unmarshal([]byte(js), &img); err != nil {
			continue
		}
		out = append(out, img)
	}
	return out, nil
}

func (r *imageRedisRepo) ExistsByFileName(ctx context.Context, fileName string) (bool, error) {
	ok, err := r.rdb.HExists(ctx, r.keyFileIndex(), fileName).Result()
	if err != nil {
		return false, fmt.Errorf("redis HEXISTS file index: %w", err)
	}
	return ok, nil
}

func (r *imageRedisRepo) UpdateName(ctx context.Context, id int64, newName string) (*domain.Image, error) {
	img, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if img.ImageName == newName {
		return img, nil
	}
	taken, err := r.rdb.HExists(ctx, r.keyEnvNames(img.EnvironmentID), newName).Result()
	if err != nil {
		return nil, fmt.Errorf("redis HEXISTS name: %w", err)
	}
	if taken {
		return nil, ErrNameTaken
	}

	oldName := img.ImageName
	img.ImageName = newName
	img.UpdatedAt = r.now().UTC()
	b, _ := json.Marshal(img)

	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, r.keyImagesHash(), idField(id), string(b))
	pipe.HDel(ctx, r.keyEnvNames(img.EnvironmentID), oldName)
	pipe.HSet(ctx, r.keyEnvNames(img.EnvironmentID), newName, idField(id))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("redis rename image: %w", err)
	}
	return img, nil
}

func (r *imageRedisRepo) Delete(ctx context.Context, id int64) (*domain.Image, error) {
	img, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	pipe := r.rdb.TxPipeline()
	pipe.HDel(ctx, r.keyImagesHash(), idField(id))
	pipe.HDel(ctx, r.keyFileIndex(), img.FileName)
	pipe.HDel(ctx, r.keyEnvNames(img.EnvironmentID), img.ImageName)
	pipe.ZRem(ctx, r.keyEnvIndex(img.EnvironmentID), idField(id))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("redis delete image: %w", err)
	}
	return img, nil
}

func (r *imageRedisRepo) DeleteAllByEnvironment(ctx context.Context, environmentID int64) ([]domain.Image, error) {
	images, err := r.ListByEnvironment(ctx, environmentID)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return []domain.Image{}, nil
	}
	pipe := r.rdb.TxPipeline()
	for _, img := range images {
		pipe.HDel(ctx, r.keyImagesHash(), idField(img.ID))
		pipe.HDel(ctx, r.keyFileIndex(), img.FileName)
	}
	pipe.Del(ctx, r.keyEnvIndex(environmentID))
	pipe.Del(ctx, r.keyEnvNames(environmentID))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("redis delete environment images: %w", err)
	}
	return images, nil
}

func (r *imageRedisRepo) CountByEnvironment(ctx context.Context, environmentID int64) (int64, error) {
	n, err := r.rdb.ZCard(ctx, r.keyEnvIndex(environmentID)).Result()
	if err != nil && err != redis.Nil {
		return 0, fmt.Errorf("redis ZCARD env index: %w", err)
	}
	return n, nil
}

func (r *imageRedisRepo) getByField(ctx context.Context, idStr string) (*domain.Image, error) {
	js, err := r.rdb.HGet(ctx, r.keyImagesHash(), idStr).Result()
	if err == redis.Nil || js == "" {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis HGET image: %w", err)
	}
	var img domain.Image
	if err := json.Unmarshal([]byte(js), &img); err != nil {
		return nil, fmt.Errorf("unmarshal image: %w", err)
	}
	return &img, nil
}

func idField(id int64) string { return fmt.Sprintf("%d", id) }
