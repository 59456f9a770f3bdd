package main

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func bindFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}
