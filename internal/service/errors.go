package service

import "errors"

var (
	// 前置条件错误：在任何写入之前返回
	ErrDuplicateSubscription = errors.New("already subscribed to this channel")
	ErrLimitReached          = errors.New("channel limit reached for current plan")
	ErrChannelUnresolvable   = errors.New("channel could not be resolved")
	ErrInvalidInput          = errors.New("invalid input")

	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrListNotFound         = errors.New("list not found")
	ErrAlreadyFollowing     = errors.New("already following this list")
	ErrNotFollowing         = errors.New("not following this list")
	// ErrListFollowRolledBack 批量关注中途失败，关注关系已撤销
	ErrListFollowRolledBack = errors.New("list follow rolled back")
)
