// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// PasswordHash と GoogleID の少なくとも一方は必ず設定されている。
type User struct {
	ID           string
	Name         string
	Surname      string
	Email        string
	PasswordHash *string // Googleのみで登録したユーザーはnil
	GoogleID     *string // Google連携していないユーザーはnil
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword はパスワード認証が利用可能かを返す。
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// HasGoogleID はGoogleアカウントと連携済みかを返す。
func (u *User) HasGoogleID() bool {
	return u.GoogleID != nil && *u.GoogleID != ""
}

// PublicUser はAPIで公開してよいユーザー情報の射影。
// パスワードハッシュとGoogleのsubject IDは含めない。
type PublicUser struct {
	ID      string
	Name    string
	Surname string
	Email   string
}

// Public はUserから公開用の射影を生成する。
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:      u.ID,
		Name:    u.Name,
		Surname: u.Surname,
		Email:   u.Email,
	}
}

// Profile は本人向けのユーザー情報。
// 認証手段は有無のみを返し、ハッシュやsubject IDそのものは含めない。
type Profile struct {
	ID           string
	Name         string
	Surname      string
	Email        string
	HasPassword  bool
	GoogleLinked bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile はUserから本人向けの射影を生成する。
func (u *User) Profile() Profile {
	return Profile{
		ID:           u.ID,
		Name:         u.Name,
		Surname:      u.Surname,
		Email:        u.Email,
		HasPassword:  u.HasPassword(),
		GoogleLinked: u.HasGoogleID(),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
